// Package memledger is an in-process ledger with row-level locks. It backs
// LEDGER_DRIVER=memory and the package tests.
//
// Reads see committed rows plus the reading transaction's own writes. A
// conditional update takes the row lock, compares against the latest
// committed stock and keeps the lock until Commit or Rollback.
//
// Lock waits follow wait-die: a transaction that already holds a row lock
// only waits for a younger holder. A younger one gets orders.ErrLockConflict
// instead, so the wait-for graph never has a cycle and the oldest
// transaction always makes progress. Postgres detects the same cycles after
// the fact (40P01); here they are prevented up front.
package memledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ariefcatur/dailyfresh-orders/internal/checkout"
	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
)

type row struct {
	sku    orders.SKU
	holder uint64        // tx id pemegang lock, 0 = bebas
	freed  chan struct{} // ditutup saat lock dilepas
}

type Ledger struct {
	mu        sync.Mutex
	lastTx    uint64
	skus      map[string]*row
	addresses map[string]string // address_id -> buyer_id
	orders    map[string]orders.Order
}

func New() *Ledger {
	return &Ledger{
		skus:      map[string]*row{},
		addresses: map[string]string{},
		orders:    map[string]orders.Order{},
	}
}

// PutSKU inserts or replaces a catalog row.
func (l *Ledger) PutSKU(s orders.SKU) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.skus[s.ID]; ok {
		r.sku = s
		return
	}
	l.skus[s.ID] = &row{sku: s, freed: make(chan struct{})}
}

func (l *Ledger) PutAddress(addressID, buyerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.addresses[addressID] = buyerID
}

func (l *Ledger) ReadSKU(_ context.Context, skuID string) (orders.SKU, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.skus[skuID]
	if !ok {
		return orders.SKU{}, orders.ErrSKUNotFound
	}
	return r.sku, nil
}

func (l *Ledger) AddressOwnedBy(_ context.Context, addressID, buyerID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.addresses[addressID]
	return ok && owner == buyerID, nil
}

// Orders returns committed orders sorted by id.
func (l *Ledger) Orders() []orders.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]orders.Order, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Ledger) Begin(_ context.Context) (checkout.LedgerTx, error) {
	l.mu.Lock()
	l.lastTx++
	id := l.lastTx
	l.mu.Unlock()
	return &Tx{id: id, l: l, held: map[string]*row{}, pending: map[string]orders.SKU{}}, nil
}

type Tx struct {
	id      uint64 // makin kecil makin tua
	l       *Ledger
	held    map[string]*row
	pending map[string]orders.SKU
	order   *orders.Order
	lines   []orders.OrderLine
	done    bool
}

var errTxDone = fmt.Errorf("memledger: transaction already finished")

func (t *Tx) current(id string) (*row, orders.SKU, error) {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	r, ok := t.l.skus[id]
	if !ok {
		return nil, orders.SKU{}, orders.ErrSKUNotFound
	}
	if s, ok := t.pending[id]; ok {
		return r, s, nil
	}
	return r, r.sku, nil
}

func (t *Tx) acquire(ctx context.Context, id string, r *row) error {
	if _, ok := t.held[id]; ok {
		return nil
	}
	for {
		t.l.mu.Lock()
		if r.holder == 0 {
			r.holder = t.id
			t.l.mu.Unlock()
			t.held[id] = r
			return nil
		}
		holder, freed := r.holder, r.freed
		t.l.mu.Unlock()

		if len(t.held) > 0 && t.id > holder {
			return fmt.Errorf("%w: sku %s held by older transaction", orders.ErrLockConflict, id)
		}
		select {
		case <-freed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (t *Tx) release(id string) {
	r, ok := t.held[id]
	if !ok {
		return
	}
	delete(t.held, id)
	t.l.mu.Lock()
	r.holder = 0
	close(r.freed)
	r.freed = make(chan struct{})
	t.l.mu.Unlock()
}

func (t *Tx) ReadSKU(_ context.Context, skuID string) (orders.SKU, error) {
	if t.done {
		return orders.SKU{}, errTxDone
	}
	_, s, err := t.current(skuID)
	return s, err
}

func (t *Tx) LockSKU(ctx context.Context, skuID string) (orders.SKU, error) {
	if t.done {
		return orders.SKU{}, errTxDone
	}
	r, _, err := t.current(skuID)
	if err != nil {
		return orders.SKU{}, err
	}
	if err := t.acquire(ctx, skuID, r); err != nil {
		return orders.SKU{}, err
	}
	_, s, err := t.current(skuID)
	return s, err
}

func (t *Tx) ConditionalUpdateSKU(ctx context.Context, skuID string, expectedStock, newStock, newSales int) (bool, error) {
	if t.done {
		return false, errTxDone
	}
	r, _, err := t.current(skuID)
	if err != nil {
		return false, err
	}
	_, wasHeld := t.held[skuID]
	if err := t.acquire(ctx, skuID, r); err != nil {
		return false, err
	}
	_, cur, err := t.current(skuID)
	if err != nil {
		return false, err
	}
	if cur.Stock != expectedStock {
		if !wasHeld {
			t.release(skuID)
		}
		return false, nil
	}
	if newStock < 0 {
		if !wasHeld {
			t.release(skuID)
		}
		return false, orders.ErrNegativeStock
	}
	cur.Stock, cur.Sales = newStock, newSales
	t.l.mu.Lock()
	t.pending[skuID] = cur
	t.l.mu.Unlock()
	return true, nil
}

func (t *Tx) InsertOrder(_ context.Context, o orders.Order) error {
	if t.done {
		return errTxDone
	}
	if t.order != nil {
		return orders.ErrDuplicateOrder
	}
	o.Lines = nil
	t.order = &o
	return nil
}

func (t *Tx) InsertOrderLines(_ context.Context, lines []orders.OrderLine) error {
	if t.done {
		return errTxDone
	}
	if t.order == nil {
		return fmt.Errorf("memledger: order lines inserted before order")
	}
	t.lines = append(t.lines, lines...)
	return nil
}

func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return errTxDone
	}
	t.l.mu.Lock()
	if t.order != nil {
		if _, exists := t.l.orders[t.order.ID]; exists {
			t.l.mu.Unlock()
			t.finish()
			return orders.ErrDuplicateOrder
		}
		o := *t.order
		o.Lines = append([]orders.OrderLine(nil), t.lines...)
		t.l.orders[o.ID] = o
	}
	for id, s := range t.pending {
		t.l.skus[id].sku = s
	}
	t.l.mu.Unlock()
	t.finish()
	return nil
}

func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *Tx) finish() {
	t.done = true
	t.pending = map[string]orders.SKU{}
	for id := range t.held {
		t.release(id)
	}
}

func (l *Ledger) ListSKUs(_ context.Context) ([]orders.SKU, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]orders.SKU, 0, len(l.skus))
	for _, r := range l.skus {
		out = append(out, r.sku)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
