package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/dailyfresh-orders/internal/checkout"
	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sqlReadSKU      = `SELECT id, name, price_cents, stock, sales FROM skus WHERE id=$1`
	sqlLockSKU      = `SELECT id, name, price_cents, stock, sales FROM skus WHERE id=$1 FOR UPDATE`
	sqlCASUpdateSKU = `UPDATE skus SET stock=$3, sales=$4, updated_at=now() WHERE id=$1 AND stock=$2`
	sqlAddressOwner = `SELECT user_id FROM addresses WHERE id=$1`
	sqlInsertOrder  = `INSERT INTO orders(order_id, user_id, address_id, pay_method, total_count,
	                       total_price_cents, transport_price_cents, status, created_at)
	                   VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	sqlInsertLine = `INSERT INTO order_lines(order_id, sku_id, qty, price_cents) VALUES ($1,$2,$3,$4)`
)

// mapTxErr menerjemahkan error Postgres yang berarti "kalah rebutan lock".
func mapTxErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40P01", "40001", "55P03": // deadlock, serialization failure, lock_not_available
			return fmt.Errorf("%w: %s", orders.ErrLockConflict, pgErr.Message)
		}
	}
	return err
}

// Ledger implements checkout.Ledger on Postgres.
type Ledger struct{ DB DB }

func (l *Ledger) Begin(ctx context.Context) (checkout.LedgerTx, error) {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

func (l *Ledger) ReadSKU(ctx context.Context, skuID string) (orders.SKU, error) {
	return scanSKU(l.DB.QueryRow(ctx, sqlReadSKU, skuID))
}

func (l *Ledger) AddressOwnedBy(ctx context.Context, addressID, buyerID string) (bool, error) {
	var owner string
	err := l.DB.QueryRow(ctx, sqlAddressOwner, addressID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return owner == buyerID, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSKU(row rowScanner) (orders.SKU, error) {
	var (
		s     orders.SKU
		cents int64
	)
	err := row.Scan(&s.ID, &s.Name, &cents, &s.Stock, &s.Sales)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.SKU{}, orders.ErrSKUNotFound
	}
	if err != nil {
		return orders.SKU{}, mapTxErr(err)
	}
	s.UnitPrice = orders.FromCents(cents)
	return s, nil
}

// Tx wraps one pgx transaction for a checkout.
type Tx struct {
	tx   pgx.Tx
	done bool
}

func (t *Tx) ReadSKU(ctx context.Context, skuID string) (orders.SKU, error) {
	return scanSKU(t.tx.QueryRow(ctx, sqlReadSKU, skuID))
}

func (t *Tx) LockSKU(ctx context.Context, skuID string) (orders.SKU, error) {
	return scanSKU(t.tx.QueryRow(ctx, sqlLockSKU, skuID))
}

// ConditionalUpdateSKU: matched kalau tepat 1 row ter-update.
func (t *Tx) ConditionalUpdateSKU(ctx context.Context, skuID string, expectedStock, newStock, newSales int) (bool, error) {
	ct, err := t.tx.Exec(ctx, sqlCASUpdateSKU, skuID, expectedStock, newStock, newSales)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" { // check_violation
			return false, orders.ErrNegativeStock
		}
		return false, mapTxErr(err)
	}
	return ct.RowsAffected() == 1, nil
}

func (t *Tx) InsertOrder(ctx context.Context, o orders.Order) error {
	_, err := t.tx.Exec(ctx, sqlInsertOrder,
		o.ID, o.BuyerID, o.AddressID, int(o.PaymentMethod), o.TotalCount,
		orders.Cents(o.TotalPrice), orders.Cents(o.ShippingFee), int(o.Status), o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return orders.ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", mapTxErr(err))
	}
	return nil
}

func (t *Tx) InsertOrderLines(ctx context.Context, lines []orders.OrderLine) error {
	for _, l := range lines {
		if _, err := t.tx.Exec(ctx, sqlInsertLine, l.OrderID, l.SKUID, l.Quantity, orders.Cents(l.UnitPrice)); err != nil {
			return fmt.Errorf("insert order line %s: %w", l.SKUID, err)
		}
	}
	return nil
}

func (t *Tx) Commit(ctx context.Context) error {
	t.done = true
	return mapTxErr(t.tx.Commit(ctx))
}

func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback(ctx)
}
