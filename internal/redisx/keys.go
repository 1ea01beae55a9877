package redisx

import "time"

const (
	// Cart pembeli: hash cart_{buyer_id} -> {sku_id: qty}
	KeyCart = "cart_%s"

	// Idempotency commit order: idem:order:commit:{buyer_id}:{key} -> order_id
	KeyIdemOrderCommit = "idem:order:commit:%s:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

// IdemPending disimpan selama commit masih berjalan.
const IdemPending = "pending"
