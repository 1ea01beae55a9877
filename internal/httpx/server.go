package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HeaderUserID di-set oleh gateway/auth layer di depan service ini.
const HeaderUserID = "X-User-Id"

// HeaderInternalToken dipakai service/operator internal (mis. gudang).
const HeaderInternalToken = "X-Internal-Token"

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func buyerID(r *http.Request) string { return r.Header.Get(HeaderUserID) }
