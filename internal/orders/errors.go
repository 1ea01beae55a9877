package orders

import "errors"

var (
	ErrSKUNotFound    = errors.New("sku not found")
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order id already exists")
	ErrNegativeStock  = errors.New("stock would go negative")
	// ErrLockConflict: tx dibatalkan storage karena rebutan lock (deadlock,
	// serialization failure). Aman diulang sebagai order baru.
	ErrLockConflict = errors.New("row lock conflict")
)
