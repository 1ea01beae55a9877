package checkout

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := newErr(KindInsufficientStock, "apple", errors.New("requested 3, available 1"))
	wrapped := fmt.Errorf("handler: %w", base)

	assert.Equal(t, KindInsufficientStock, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindInsufficientStock}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: KindUnknownSKU}))
	assert.Equal(t, "insufficient stock (sku apple): requested 3, available 1", base.Error())
}

func TestKindsAreDistinct(t *testing.T) {
	seen := map[string]Kind{}
	for k := KindNotAuthenticated; k <= KindTimeout; k++ {
		name := k.String()
		assert.NotEmpty(t, name)
		_, dup := seen[name]
		assert.False(t, dup, "kind %d shares name %q", k, name)
		seen[name] = k
	}
}

func TestRetryPolicyDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxAttempts, RetryPolicy{}.attempts())
	assert.Equal(t, 7, RetryPolicy{MaxAttempts: 7}.attempts())
	assert.IsType(t, Locking{}, NewReserver("locking", RetryPolicy{}))
	assert.IsType(t, Optimistic{}, NewReserver("optimistic", RetryPolicy{}))
}
