package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/ariefcatur/dailyfresh-orders/internal/checkout"
)

// Kode "res" di body response, satu kode per jenis error.
const (
	ResNotAuthenticated    = 0
	ResMissingParameters   = 1
	ResInvalidAddress      = 2
	ResInvalidPayment      = 3
	ResUnknownSKU          = 4
	ResOK                  = 5
	ResInsufficientStock   = 6
	ResConcurrentExhausted = 7
	ResPersistenceFailure  = 8
	ResTimeout             = 9
	ResDuplicateInFlight   = 10
	ResNotFound            = 11
	ResInvalidTransition   = 12
	ResRateLimited         = 13
)

type errorResp struct {
	Res      int    `json:"res"`
	Error    string `json:"error"`
	ErrorMsg string `json:"error_msg"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status, res int, kind, msg string) {
	writeJSON(w, status, errorResp{Res: res, Error: kind, ErrorMsg: msg})
}

// commitStatus memetakan checkout.Kind ke (http status, res code).
func commitStatus(k checkout.Kind) (int, int) {
	switch k {
	case checkout.KindNotAuthenticated:
		return http.StatusUnauthorized, ResNotAuthenticated
	case checkout.KindMissingParameters:
		return http.StatusBadRequest, ResMissingParameters
	case checkout.KindInvalidAddress:
		return http.StatusUnprocessableEntity, ResInvalidAddress
	case checkout.KindInvalidPaymentMethod:
		return http.StatusUnprocessableEntity, ResInvalidPayment
	case checkout.KindUnknownSKU:
		return http.StatusUnprocessableEntity, ResUnknownSKU
	case checkout.KindInsufficientStock:
		return http.StatusConflict, ResInsufficientStock
	case checkout.KindConcurrentUpdateExhausted:
		return http.StatusConflict, ResConcurrentExhausted
	case checkout.KindTimeout:
		return http.StatusGatewayTimeout, ResTimeout
	default:
		return http.StatusInternalServerError, ResPersistenceFailure
	}
}

func writeCheckoutErr(w http.ResponseWriter, err error) {
	k := checkout.KindOf(err)
	status, res := commitStatus(k)
	kind := k.String()
	if k == checkout.KindUnknown {
		kind = checkout.KindPersistenceFailure.String()
	}
	writeErr(w, status, res, kind, err.Error())
}
