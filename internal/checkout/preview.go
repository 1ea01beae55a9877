package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/shopspring/decimal"
)

// PreviewLine adalah view untuk halaman konfirmasi; entity SKU tidak diubah.
type PreviewLine struct {
	SKUID     string          `json:"sku_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Stock     int             `json:"stock"`
}

type CartPreview struct {
	BuyerID       string          `json:"buyer_id"`
	Lines         []PreviewLine   `json:"lines"`
	Unavailable   []string        `json:"unavailable,omitempty"`
	TotalCount    int             `json:"total_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ShippingFee   decimal.Decimal `json:"shipping_fee"`
	AmountPayable decimal.Decimal `json:"amount_payable"`
}

func (e *Engine) shippingFee() decimal.Decimal {
	if e.ShippingFee == nil {
		return DefaultShippingFee
	}
	return *e.ShippingFee
}

// Preview membaca seluruh cart buyer + metadata SKU. Read-only.
func (e *Engine) Preview(ctx context.Context, buyerID string) (CartPreview, error) {
	if buyerID == "" {
		return CartPreview{}, &Error{Kind: KindNotAuthenticated, Err: errors.New("no buyer")}
	}
	cart, err := e.Carts.GetAll(ctx, buyerID)
	if err != nil {
		return CartPreview{}, storageErr(ctx, "", fmt.Errorf("read cart: %w", err))
	}

	skuIDs := make([]string, 0, len(cart))
	for id := range cart {
		skuIDs = append(skuIDs, id)
	}
	sort.Strings(skuIDs)

	p := CartPreview{BuyerID: buyerID, TotalAmount: decimal.Zero, ShippingFee: e.shippingFee()}
	for _, id := range skuIDs {
		sku, err := e.Ledger.ReadSKU(ctx, id)
		if errors.Is(err, orders.ErrSKUNotFound) {
			p.Unavailable = append(p.Unavailable, id)
			continue
		}
		if err != nil {
			return CartPreview{}, storageErr(ctx, id, err)
		}
		qty := cart[id]
		sub := sku.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
		p.Lines = append(p.Lines, PreviewLine{
			SKUID:     sku.ID,
			Name:      sku.Name,
			UnitPrice: sku.UnitPrice,
			Quantity:  qty,
			Subtotal:  sub,
			Stock:     sku.Stock,
		})
		p.TotalCount += qty
		p.TotalAmount = p.TotalAmount.Add(sub)
	}
	p.AmountPayable = p.TotalAmount.Add(p.ShippingFee)
	return p, nil
}

// LineRequests menyusun line request (urut sesuai skuIDs) dari qty di cart.
// SKU yang tidak ada di cart -> MissingParameters.
func (e *Engine) LineRequests(ctx context.Context, buyerID string, skuIDs []string) ([]orders.LineRequest, error) {
	if buyerID == "" {
		return nil, &Error{Kind: KindNotAuthenticated, Err: errors.New("no buyer")}
	}
	if len(skuIDs) == 0 {
		return nil, invalid(KindMissingParameters, "no sku ids")
	}
	cart, err := e.Carts.GetAll(ctx, buyerID)
	if err != nil {
		return nil, storageErr(ctx, "", fmt.Errorf("read cart: %w", err))
	}
	out := make([]orders.LineRequest, 0, len(skuIDs))
	for _, id := range skuIDs {
		qty, ok := cart[id]
		if !ok {
			return nil, &Error{Kind: KindMissingParameters, SKUID: id, Err: errors.New("sku not in cart")}
		}
		out = append(out, orders.LineRequest{SKUID: id, Quantity: qty})
	}
	return out, nil
}
