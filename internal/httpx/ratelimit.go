package httpx

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BuyerLimiter membatasi laju commit per buyer (fallback: remote addr), supaya
// klik ganda / script tidak membanjiri transaksi stok.
type BuyerLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewBuyerLimiter(rps float64, burst int) *BuyerLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &BuyerLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (l *BuyerLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// Sweep membuang limiter yang idle lebih lama dari maxIdle. Return jumlah yang dibuang.
func (l *BuyerLimiter) Sweep(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > maxIdle {
			delete(l.visitors, k)
			n++
		}
	}
	return n
}

// RunSweeper menjalankan Sweep tiap menit sampai ctx selesai.
func (l *BuyerLimiter) RunSweeper(ctx context.Context, maxIdle time.Duration) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep(maxIdle)
		}
	}
}

func (l *BuyerLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := buyerID(r)
		if key == "" {
			key = "addr:" + r.RemoteAddr
		}
		if !l.get(key).Allow() {
			w.Header().Set("Retry-After", "1")
			writeErr(w, http.StatusTooManyRequests, ResRateLimited, "rate limited", "too many order submissions, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
