package checkout_test

import (
	"context"
	"testing"

	"github.com/ariefcatur/dailyfresh-orders/internal/checkout"
	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	eng, _, carts := newFixture(t, nil)
	carts.put("u1", "pear", 1)
	carts.put("u1", "apple", 2)
	carts.put("u1", "gone", 1)

	p, err := eng.Preview(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, p.Lines, 2)
	assert.Equal(t, "apple", p.Lines[0].SKUID)
	assert.Equal(t, "Apple", p.Lines[0].Name)
	assert.True(t, p.Lines[0].Subtotal.Equal(price("6.00")))
	assert.Equal(t, "pear", p.Lines[1].SKUID)
	assert.Equal(t, []string{"gone"}, p.Unavailable)
	assert.Equal(t, 3, p.TotalCount)
	assert.True(t, p.TotalAmount.Equal(price("11.00")))
	assert.True(t, p.AmountPayable.Equal(price("21.00")))
}

func TestPreview_EmptyCart(t *testing.T) {
	eng, _, _ := newFixture(t, nil)
	p, err := eng.Preview(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, p.Lines)
	assert.True(t, p.TotalAmount.IsZero())
}

func TestPreview_RequiresBuyer(t *testing.T) {
	eng, _, _ := newFixture(t, nil)
	_, err := eng.Preview(context.Background(), "")
	assert.Equal(t, checkout.KindNotAuthenticated, checkout.KindOf(err))
}

func TestLineRequests(t *testing.T) {
	eng, _, carts := newFixture(t, nil)
	carts.put("u1", "apple", 2)
	carts.put("u1", "pear", 1)

	lines, err := eng.LineRequests(context.Background(), "u1", []string{"pear", "apple"})
	require.NoError(t, err)
	assert.Equal(t, []orders.LineRequest{{SKUID: "pear", Quantity: 1}, {SKUID: "apple", Quantity: 2}}, lines)

	_, err = eng.LineRequests(context.Background(), "u1", []string{"kiwi"})
	assert.Equal(t, checkout.KindMissingParameters, checkout.KindOf(err))

	_, err = eng.LineRequests(context.Background(), "u1", nil)
	assert.Equal(t, checkout.KindMissingParameters, checkout.KindOf(err))
}

func TestShippingFee_ZeroMeansFree(t *testing.T) {
	eng, _, carts := newFixture(t, nil)
	free := price("0")
	eng.ShippingFee = &free
	carts.put("u1", "apple", 2)

	p, err := eng.Preview(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, p.ShippingFee.IsZero())
	assert.True(t, p.AmountPayable.Equal(price("6.00")))

	o, err := eng.CommitOrder(context.Background(), commitReq(line("apple", 2)))
	require.NoError(t, err)
	assert.True(t, o.ShippingFee.IsZero())
	assert.True(t, o.AmountPayable().Equal(price("6.00")))
}

func TestShippingFee_DefaultWhenUnset(t *testing.T) {
	eng, _, _ := newFixture(t, nil)
	eng.ShippingFee = nil
	p, err := eng.Preview(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, p.ShippingFee.Equal(checkout.DefaultShippingFee))
}
