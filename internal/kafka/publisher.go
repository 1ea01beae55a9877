package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Publisher is the narrow view of *Producer the order events need.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// OrderEvents membungkus payload order ke Envelope v1 lalu publish.
type OrderEvents struct {
	Committed Publisher // topic order.committed
	Status    Publisher // topic order.status, optional
	Service   string
}

func (e *OrderEvents) OrderCommitted(ctx context.Context, o orders.Order, cartCleanupPending bool) error {
	p := orders.CommittedPayload(o)
	p.CartCleanupPending = cartCleanupPending
	return e.publish(ctx, e.Committed, orders.EventOrderCommitted, o.ID, p)
}

// StatusChanged implements lifecycle.Listener; error cukup di-log.
func (e *OrderEvents) StatusChanged(ctx context.Context, orderID string, to orders.Status, tradeNo string) {
	if e.Status == nil {
		return
	}
	evType := orders.EventOrderStatusChanged
	switch to {
	case orders.StatusAwaitingShipment:
		evType = orders.EventOrderPaid
	case orders.StatusCompleted:
		evType = orders.EventOrderCompleted
	}
	p := orders.OrderStatusPayload{OrderID: orderID, Status: to.String(), TradeNo: tradeNo}
	if err := e.publish(ctx, e.Status, evType, orderID, p); err != nil {
		slog.Default().Warn("publish status event", "order_id", orderID, "err", err)
	}
}

func (e *OrderEvents) publish(ctx context.Context, p Publisher, evType, orderID string, payload any) error {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     evType,
		EventVersion:  EnvelopeVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.Service,
		CorrelationID: orderID,
		Payload:       MustMarshal(payload),
	}
	return p.Publish(ctx, orders.PartitionKey(orderID), MustMarshal(ev),
		kafka.Header{Key: "x-event-type", Value: []byte(evType)},
		kafka.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
