package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
)

var (
	ErrUnknownSKU        = errors.New("unknown sku")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Store interface {
	Get(ctx context.Context, buyerID, skuID string) (int, error)
	Set(ctx context.Context, buyerID, skuID string, qty int) error
	Delete(ctx context.Context, buyerID string, skuIDs ...string) error
	Count(ctx context.Context, buyerID string) (int, error)
}

type Catalog interface {
	ReadSKU(ctx context.Context, skuID string) (orders.SKU, error)
}

// Service mengelola isi cart. Cek stok di sini hanya hint untuk UI; stok yang
// berlaku dicek ulang saat checkout.
type Service struct {
	Store   Store
	Catalog Catalog
}

// Add menambah qty ke jumlah yang sudah ada. Return jumlah baris di cart.
func (s *Service) Add(ctx context.Context, buyerID, skuID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	sku, err := s.sku(ctx, skuID)
	if err != nil {
		return 0, err
	}
	cur, err := s.Store.Get(ctx, buyerID, skuID)
	if err != nil {
		return 0, fmt.Errorf("read cart: %w", err)
	}
	total := cur + qty
	if total > sku.Stock {
		return 0, fmt.Errorf("%w: want %d, have %d", ErrInsufficientStock, total, sku.Stock)
	}
	if err := s.Store.Set(ctx, buyerID, skuID, total); err != nil {
		return 0, fmt.Errorf("write cart: %w", err)
	}
	return s.Store.Count(ctx, buyerID)
}

// Update mengganti qty (bukan menambah).
func (s *Service) Update(ctx context.Context, buyerID, skuID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	sku, err := s.sku(ctx, skuID)
	if err != nil {
		return err
	}
	if qty > sku.Stock {
		return fmt.Errorf("%w: want %d, have %d", ErrInsufficientStock, qty, sku.Stock)
	}
	return s.Store.Set(ctx, buyerID, skuID, qty)
}

func (s *Service) Remove(ctx context.Context, buyerID, skuID string) error {
	return s.Store.Delete(ctx, buyerID, skuID)
}

func (s *Service) Count(ctx context.Context, buyerID string) (int, error) {
	return s.Store.Count(ctx, buyerID)
}

func (s *Service) sku(ctx context.Context, skuID string) (orders.SKU, error) {
	sku, err := s.Catalog.ReadSKU(ctx, skuID)
	if errors.Is(err, orders.ErrSKUNotFound) {
		return orders.SKU{}, ErrUnknownSKU
	}
	return sku, err
}
