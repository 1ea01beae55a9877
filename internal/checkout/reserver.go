package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
)

const DefaultMaxAttempts = 3

// RetryPolicy membatasi berapa kali satu baris boleh mencoba CAS update.
type RetryPolicy struct {
	MaxAttempts int
	// OnConflict dipanggil tiap kali CAS tidak match (optional).
	OnConflict func(ctx context.Context, skuID string, attempt int)
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

// Reserver mengurangi stok + menambah sales untuk satu baris di dalam tx,
// dan mengembalikan snapshot SKU yang dipakai (untuk harga).
type Reserver interface {
	Reserve(ctx context.Context, tx LedgerTx, line orders.LineRequest) (orders.SKU, error)
}

// Optimistic: read -> cek stok -> UPDATE ... WHERE stock = expected, retry kalau
// kalah race.
type Optimistic struct {
	Policy RetryPolicy
}

func (o Optimistic) Reserve(ctx context.Context, tx LedgerTx, line orders.LineRequest) (orders.SKU, error) {
	max := o.Policy.attempts()
	for attempt := 1; attempt <= max; attempt++ {
		if err := ctx.Err(); err != nil {
			return orders.SKU{}, newErr(KindTimeout, line.SKUID, err)
		}
		sku, err := tx.ReadSKU(ctx, line.SKUID)
		if err != nil {
			return orders.SKU{}, storageErr(ctx, line.SKUID, err)
		}
		if line.Quantity > sku.Stock {
			return orders.SKU{}, newErr(KindInsufficientStock, line.SKUID,
				fmt.Errorf("requested %d, available %d", line.Quantity, sku.Stock))
		}
		matched, err := tx.ConditionalUpdateSKU(ctx, sku.ID, sku.Stock, sku.Stock-line.Quantity, sku.Sales+line.Quantity)
		if err != nil {
			return orders.SKU{}, storageErr(ctx, line.SKUID, err)
		}
		if matched {
			return sku, nil
		}
		if o.Policy.OnConflict != nil {
			o.Policy.OnConflict(ctx, line.SKUID, attempt)
		}
	}
	return orders.SKU{}, newErr(KindConcurrentUpdateExhausted, line.SKUID,
		fmt.Errorf("stock changed concurrently on %d attempts", max))
}

// Locking: SELECT ... FOR UPDATE, row terkunci sampai tx selesai.
type Locking struct{}

func (Locking) Reserve(ctx context.Context, tx LedgerTx, line orders.LineRequest) (orders.SKU, error) {
	sku, err := tx.LockSKU(ctx, line.SKUID)
	if err != nil {
		return orders.SKU{}, storageErr(ctx, line.SKUID, err)
	}
	if line.Quantity > sku.Stock {
		return orders.SKU{}, newErr(KindInsufficientStock, line.SKUID,
			fmt.Errorf("requested %d, available %d", line.Quantity, sku.Stock))
	}
	matched, err := tx.ConditionalUpdateSKU(ctx, sku.ID, sku.Stock, sku.Stock-line.Quantity, sku.Sales+line.Quantity)
	if err != nil {
		return orders.SKU{}, storageErr(ctx, line.SKUID, err)
	}
	if !matched {
		// row dikunci oleh tx ini, jadi seharusnya tidak mungkin.
		return orders.SKU{}, newErr(KindPersistenceFailure, line.SKUID, errors.New("locked row changed under lock"))
	}
	return sku, nil
}

// NewReserver: "locking" -> Locking, selain itu Optimistic.
func NewReserver(strategy string, policy RetryPolicy) Reserver {
	if strategy == "locking" {
		return Locking{}
	}
	return Optimistic{Policy: policy}
}

func storageErr(ctx context.Context, skuID string, err error) *Error {
	switch {
	case errors.Is(err, orders.ErrSKUNotFound):
		return newErr(KindUnknownSKU, skuID, err)
	case errors.Is(err, orders.ErrLockConflict):
		// storage membatalkan tx ini supaya tx lain jalan; sama dengan kalah race.
		return newErr(KindConcurrentUpdateExhausted, skuID, err)
	case ctx.Err() != nil:
		return newErr(KindTimeout, skuID, err)
	default:
		return newErr(KindPersistenceFailure, skuID, err)
	}
}
