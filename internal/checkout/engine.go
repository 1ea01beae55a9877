package checkout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/shopspring/decimal"
)

// DefaultShippingFee: ongkir flat per order.
var DefaultShippingFee = decimal.NewFromInt(10)

type CommitRequest struct {
	BuyerID       string
	AddressID     string
	PaymentMethod orders.PaymentMethod
	Lines         []orders.LineRequest
}

// Engine mengubah isi cart menjadi order secara atomik.
type Engine struct {
	Ledger      Ledger
	Carts       CartStore
	Reserver    Reserver         // default Optimistic{}
	Notifier    Notifier         // optional
	Observer    Observer         // optional
	ShippingFee *decimal.Decimal // nil = DefaultShippingFee, nol = gratis ongkir
	Log         *slog.Logger
	Now         func() time.Time
}

func (e *Engine) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) reserver() Reserver {
	if e.Reserver != nil {
		return e.Reserver
	}
	return Optimistic{}
}

// CommitOrder: validasi -> satu tx (reserve per baris sesuai urutan, insert order
// + lines) -> commit -> hapus key cart yang dibeli. Gagal di mana pun sebelum
// commit = rollback semua.
func (e *Engine) CommitOrder(ctx context.Context, req CommitRequest) (o orders.Order, err error) {
	if e.Observer != nil {
		start := time.Now()
		defer func() { e.Observer.CommitFinished(ctx, err, time.Since(start)) }()
	}
	return e.commitOrder(ctx, req)
}

func (e *Engine) commitOrder(ctx context.Context, req CommitRequest) (orders.Order, error) {
	if err := e.validate(ctx, req); err != nil {
		return orders.Order{}, err
	}

	tx, err := e.Ledger.Begin(ctx)
	if err != nil {
		return orders.Order{}, storageErr(ctx, "", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			e.logger().Error("checkout rollback failed", "buyer_id", req.BuyerID, "err", rbErr)
		}
	}()

	now := e.now()
	order := orders.Order{
		ID:            orders.NewOrderID(now, req.BuyerID),
		BuyerID:       req.BuyerID,
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
		TotalPrice:    decimal.Zero,
		ShippingFee:   e.shippingFee(),
		Status:        orders.StatusAwaitingPayment,
		CreatedAt:     now.UTC(),
	}
	res := e.reserver()
	lines := make([]orders.OrderLine, 0, len(req.Lines))
	for _, lr := range req.Lines {
		sku, err := res.Reserve(ctx, tx, lr)
		if err != nil {
			return orders.Order{}, err
		}
		line := orders.OrderLine{
			OrderID:   order.ID,
			SKUID:     sku.ID,
			Quantity:  lr.Quantity,
			UnitPrice: sku.UnitPrice,
		}
		lines = append(lines, line)
		order.TotalCount += lr.Quantity
		order.TotalPrice = order.TotalPrice.Add(line.Subtotal())
	}

	if err := tx.InsertOrder(ctx, order); err != nil {
		return orders.Order{}, storageErr(ctx, "", err)
	}
	if err := tx.InsertOrderLines(ctx, lines); err != nil {
		return orders.Order{}, storageErr(ctx, "", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return orders.Order{}, storageErr(ctx, "", err)
	}
	committed = true
	order.Lines = lines

	e.afterCommit(ctx, order)
	return order, nil
}

// afterCommit: order sudah durable; error di sini cukup di-log.
func (e *Engine) afterCommit(ctx context.Context, o orders.Order) {
	log := e.logger().With("order_id", o.ID, "buyer_id", o.BuyerID)
	log.Info("order committed", "items", o.TotalCount, "total", o.TotalPrice.StringFixed(2))

	cleanupPending := false
	if e.Carts != nil {
		skuIDs := make([]string, 0, len(o.Lines))
		for _, l := range o.Lines {
			skuIDs = append(skuIDs, l.SKUID)
		}
		if err := e.Carts.Delete(ctx, o.BuyerID, skuIDs...); err != nil {
			log.Warn("cart cleanup failed, deferring to cartsync", "sku_ids", skuIDs, "err", err)
			cleanupPending = true
		}
	}
	if e.Notifier != nil {
		if err := e.Notifier.OrderCommitted(ctx, o, cleanupPending); err != nil {
			log.Warn("order committed notification failed", "err", err)
		}
	}
}

func (e *Engine) validate(ctx context.Context, req CommitRequest) error {
	if req.BuyerID == "" {
		return &Error{Kind: KindNotAuthenticated, Err: errors.New("no buyer")}
	}
	if req.AddressID == "" || req.PaymentMethod == 0 || len(req.Lines) == 0 {
		return invalid(KindMissingParameters, "address, payment method and at least one line are required")
	}
	seen := make(map[string]bool, len(req.Lines))
	for i, l := range req.Lines {
		if l.SKUID == "" || l.Quantity <= 0 {
			return invalid(KindMissingParameters, "line %d: sku id and positive quantity required", i)
		}
		if seen[l.SKUID] {
			return invalid(KindMissingParameters, "line %d: duplicate sku %s", i, l.SKUID)
		}
		seen[l.SKUID] = true
	}

	ok, err := e.Ledger.AddressOwnedBy(ctx, req.AddressID, req.BuyerID)
	if err != nil {
		return storageErr(ctx, "", err)
	}
	if !ok {
		return invalid(KindInvalidAddress, "address %s does not belong to buyer", req.AddressID)
	}
	if !req.PaymentMethod.Valid() {
		return invalid(KindInvalidPaymentMethod, "payment method %d", int(req.PaymentMethod))
	}
	return nil
}
