package checkout

import (
	"context"
	"time"

	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
)

// CartStore adalah hash per buyer: sku_id -> qty.
type CartStore interface {
	GetAll(ctx context.Context, buyerID string) (map[string]int, error)
	Delete(ctx context.Context, buyerID string, skuIDs ...string) error
}

// Ledger adalah storage transaksional untuk SKU, alamat dan order.
type Ledger interface {
	Begin(ctx context.Context) (LedgerTx, error)
	ReadSKU(ctx context.Context, skuID string) (orders.SKU, error)
	AddressOwnedBy(ctx context.Context, addressID, buyerID string) (bool, error)
}

// LedgerTx: semua mutasi satu checkout lewat handle ini; tidak ada state
// transaksi implisit.
type LedgerTx interface {
	// ReadSKU returns orders.ErrSKUNotFound for unknown ids.
	ReadSKU(ctx context.Context, skuID string) (orders.SKU, error)
	// LockSKU reads the row and holds its lock until Commit/Rollback.
	LockSKU(ctx context.Context, skuID string) (orders.SKU, error)
	// ConditionalUpdateSKU writes only if stock still equals expectedStock.
	ConditionalUpdateSKU(ctx context.Context, skuID string, expectedStock, newStock, newSales int) (matched bool, err error)
	InsertOrder(ctx context.Context, o orders.Order) error
	InsertOrderLines(ctx context.Context, lines []orders.OrderLine) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Notifier dipanggil setelah commit durable (mis. publish ke Kafka).
// cartCleanupPending true kalau hapus cart sinkron gagal dan perlu diulang.
type Notifier interface {
	OrderCommitted(ctx context.Context, o orders.Order, cartCleanupPending bool) error
}

// Observer menerima hasil tiap CommitOrder (err nil = sukses), mis. metrics.
type Observer interface {
	CommitFinished(ctx context.Context, err error, elapsed time.Duration)
}
