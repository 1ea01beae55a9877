package checkout

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotAuthenticated
	KindMissingParameters
	KindInvalidAddress
	KindInvalidPaymentMethod
	KindUnknownSKU
	KindInsufficientStock
	KindConcurrentUpdateExhausted
	KindPersistenceFailure
	KindTimeout
)

var kindNames = map[Kind]string{
	KindUnknown:                   "unknown",
	KindNotAuthenticated:          "not authenticated",
	KindMissingParameters:         "missing parameters",
	KindInvalidAddress:            "invalid address",
	KindInvalidPaymentMethod:      "invalid payment method",
	KindUnknownSKU:                "unknown sku",
	KindInsufficientStock:         "insufficient stock",
	KindConcurrentUpdateExhausted: "concurrent update retries exhausted",
	KindPersistenceFailure:        "persistence failure",
	KindTimeout:                   "timeout",
}

func (k Kind) String() string { return kindNames[k] }

// Error is the only error type CommitOrder returns.
type Error struct {
	Kind  Kind
	SKUID string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.SKUID != "" {
		msg += " (sku " + e.SKUID + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, &Error{Kind: k}) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.SKUID == "" && t.Err == nil
}

func newErr(k Kind, sku string, err error) *Error {
	return &Error{Kind: k, SKUID: sku, Err: err}
}

func invalid(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Err: fmt.Errorf(format, args...)}
}

// KindOf returns KindUnknown for errors that did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
