package cart_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/dailyfresh-orders/internal/cart"
	"github.com/ariefcatur/dailyfresh-orders/internal/memledger"
	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/ariefcatur/dailyfresh-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *cart.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	l := memledger.New()
	l.PutSKU(orders.SKU{ID: "apple", Name: "Apple", UnitPrice: decimal.NewFromInt(3), Stock: 5})
	l.PutSKU(orders.SKU{ID: "pear", Name: "Pear", UnitPrice: decimal.NewFromInt(5), Stock: 1})
	return &cart.Service{Store: &redisx.CartStore{Redis: rdb}, Catalog: l}
}

func TestAdd_Accumulates(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	n, err := s.Add(ctx, "u1", "apple", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.Add(ctx, "u1", "apple", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "same sku stays one line")

	_, err = s.Add(ctx, "u1", "apple", 1)
	assert.ErrorIs(t, err, cart.ErrInsufficientStock)

	n, err = s.Add(ctx, "u1", "pear", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAdd_Rejects(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	_, err := s.Add(ctx, "u1", "apple", 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
	_, err = s.Add(ctx, "u1", "kiwi", 1)
	assert.ErrorIs(t, err, cart.ErrUnknownSKU)
}

func TestUpdateAndRemove(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	_, err := s.Add(ctx, "u1", "apple", 4)
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "u1", "apple", 1))
	assert.ErrorIs(t, s.Update(ctx, "u1", "apple", 6), cart.ErrInsufficientStock)
	assert.ErrorIs(t, s.Update(ctx, "u1", "apple", -1), cart.ErrInvalidQuantity)

	require.NoError(t, s.Remove(ctx, "u1", "apple"))
	n, err := s.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
