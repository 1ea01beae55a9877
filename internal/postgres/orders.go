package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/jackc/pgx/v5"
)

func (l *Ledger) GetOrder(ctx context.Context, orderID string) (orders.Order, error) {
	var (
		o                  orders.Order
		payMethod, status  int
		totalCents, feeCts int64
	)
	err := l.DB.QueryRow(ctx, `
		SELECT order_id, user_id, address_id, pay_method, total_count,
		       total_price_cents, transport_price_cents, status, trade_no, created_at
		FROM orders WHERE order_id=$1`, orderID).
		Scan(&o.ID, &o.BuyerID, &o.AddressID, &payMethod, &o.TotalCount,
			&totalCents, &feeCts, &status, &o.PaymentTradeNo, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	if err != nil {
		return orders.Order{}, err
	}
	o.PaymentMethod = orders.PaymentMethod(payMethod)
	o.Status = orders.Status(status)
	o.TotalPrice = orders.FromCents(totalCents)
	o.ShippingFee = orders.FromCents(feeCts)

	rows, err := l.DB.Query(ctx, `
		SELECT sku_id, qty, price_cents, comment
		FROM order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			line  = orders.OrderLine{OrderID: o.ID}
			cents int64
		)
		if err := rows.Scan(&line.SKUID, &line.Quantity, &cents, &line.Review); err != nil {
			return orders.Order{}, err
		}
		line.UnitPrice = orders.FromCents(cents)
		o.Lines = append(o.Lines, line)
	}
	return o, rows.Err()
}

// TransitionOrder: conditional update WHERE status=from, jadi dua request
// bersamaan tidak bisa memajukan status dua kali.
func (l *Ledger) TransitionOrder(ctx context.Context, orderID string, from, to orders.Status, tradeNo *string) (bool, error) {
	ct, err := l.DB.Exec(ctx, `
		UPDATE orders SET status=$3, trade_no=COALESCE($4, trade_no), updated_at=now()
		WHERE order_id=$1 AND status=$2`, orderID, int(from), int(to), tradeNo)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// ReviewOrder menyimpan komentar (sekali saja per line) lalu menutup order.
func (l *Ledger) ReviewOrder(ctx context.Context, orderID string, reviews map[string]string) (bool, error) {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=now()
		WHERE order_id=$1 AND status=$2`,
		orderID, int(orders.StatusAwaitingReview), int(orders.StatusCompleted))
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() != 1 {
		return false, nil
	}
	for skuID, text := range reviews {
		if _, err := tx.Exec(ctx, `
			UPDATE order_lines SET comment=$3
			WHERE order_id=$1 AND sku_id=$2 AND comment IS NULL`, orderID, skuID, text); err != nil {
			return false, fmt.Errorf("review line %s: %w", skuID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Ledger) ListSKUs(ctx context.Context) ([]orders.SKU, error) {
	rows, err := l.DB.Query(ctx, `SELECT id, name, price_cents, stock, sales FROM skus ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.SKU
	for rows.Next() {
		s, err := scanSKU(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
