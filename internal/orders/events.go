package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCommitted     = "OrderCommitted"
	EventOrderPaid          = "OrderPaid"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCompleted     = "OrderCompleted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "dailyfresh-orders"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type ItemPrice struct {
	SKUID      string `json:"sku_id"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

type OrderCommittedPayload struct {
	OrderID          string      `json:"order_id"`
	BuyerID          string      `json:"buyer_id"`
	Items            []ItemPrice `json:"items"`
	TotalCount       int         `json:"total_count"`
	TotalCents       int64       `json:"total_cents"`
	ShippingFeeCents int64       `json:"shipping_fee_cents"`
	// CartCleanupPending: hapus cart saat checkout gagal, cartsync perlu mengulang.
	CartCleanupPending bool `json:"cart_cleanup_pending,omitempty"`
}

type OrderStatusPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	TradeNo string `json:"trade_no,omitempty"`
}

func CommittedPayload(o Order) OrderCommittedPayload {
	items := make([]ItemPrice, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, ItemPrice{SKUID: l.SKUID, Qty: l.Quantity, PriceCents: Cents(l.UnitPrice)})
	}
	return OrderCommittedPayload{
		OrderID:          o.ID,
		BuyerID:          o.BuyerID,
		Items:            items,
		TotalCount:       o.TotalCount,
		TotalCents:       Cents(o.TotalPrice),
		ShippingFeeCents: Cents(o.ShippingFee),
	}
}
