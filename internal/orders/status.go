package orders

import "fmt"

type Status int

const (
	StatusAwaitingPayment  Status = 1
	StatusAwaitingShipment Status = 2
	StatusAwaitingReceipt  Status = 3
	StatusAwaitingReview   Status = 4
	StatusCompleted        Status = 5
)

// Status hanya maju satu langkah, tidak pernah mundur.
var validNext = map[Status]map[Status]bool{
	StatusAwaitingPayment:  {StatusAwaitingShipment: true},
	StatusAwaitingShipment: {StatusAwaitingReceipt: true},
	StatusAwaitingReceipt:  {StatusAwaitingReview: true},
	StatusAwaitingReview:   {StatusCompleted: true},
	StatusCompleted:        {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) String() string {
	switch s {
	case StatusAwaitingPayment:
		return "AWAITING_PAYMENT"
	case StatusAwaitingShipment:
		return "AWAITING_SHIPMENT"
	case StatusAwaitingReceipt:
		return "AWAITING_RECEIPT"
	case StatusAwaitingReview:
		return "AWAITING_REVIEW"
	case StatusCompleted:
		return "COMPLETED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}
