package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuyerLimiter(t *testing.T) {
	l := NewBuyerLimiter(0.001, 1)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	send := func(buyer string) int {
		req := httptest.NewRequest(http.MethodPost, "/orders/commit", nil)
		req.Header.Set(HeaderUserID, buyer)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send("u1"))
	assert.Equal(t, http.StatusTooManyRequests, send("u1"))
	assert.Equal(t, http.StatusCreated, send("u2"), "limit is per buyer")
}

func TestBuyerLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewBuyerLimiter(1, 1)
	l.now = func() time.Time { return now }
	l.get("u1")
	now = now.Add(2 * time.Minute)
	l.get("u2")

	assert.Equal(t, 1, l.Sweep(time.Minute))
	assert.Len(t, l.visitors, 1)
	assert.Contains(t, l.visitors, "u2")
}
