package memledger

import (
	"context"

	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
)

func (l *Ledger) GetOrder(_ context.Context, orderID string) (orders.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	o.Lines = append([]orders.OrderLine(nil), o.Lines...)
	return o, nil
}

func (l *Ledger) TransitionOrder(_ context.Context, orderID string, from, to orders.Status, tradeNo *string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return false, orders.ErrOrderNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	if tradeNo != nil {
		tn := *tradeNo
		o.PaymentTradeNo = &tn
	}
	l.orders[orderID] = o
	return true, nil
}

func (l *Ledger) ReviewOrder(_ context.Context, orderID string, reviews map[string]string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return false, orders.ErrOrderNotFound
	}
	if o.Status != orders.StatusAwaitingReview {
		return false, nil
	}
	lines := append([]orders.OrderLine(nil), o.Lines...)
	for i := range lines {
		text, ok := reviews[lines[i].SKUID]
		if !ok || lines[i].Review != nil {
			continue
		}
		lines[i].Review = &text
	}
	o.Lines = lines
	o.Status = orders.StatusCompleted
	l.orders[orderID] = o
	return true, nil
}
