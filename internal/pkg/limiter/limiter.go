/*
Package limiter provides keyed token-bucket rate limiting.

Each key (a client IP, a session id) gets its own rate.Limiter. A background goroutine
periodically drops limiters whose bucket has refilled, so idle keys do not accumulate.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"arcadelive/internal/pkg/errs"
	"arcadelive/internal/pkg/logx"
	"arcadelive/internal/pkg/resp"
)

// cleanupInterval is how often idle limiters are swept.
const cleanupInterval = 3 * time.Minute

// KeyedLimiter holds one token bucket per key.
type KeyedLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter

	// r is the refill rate in events per second, b the bucket size.
	r rate.Limit
	b int

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a KeyedLimiter and starts its cleanup goroutine. Call Stop to end it.
func New(r rate.Limit, b int) *KeyedLimiter {
	k := &KeyedLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		stop:   make(chan struct{}),
	}

	go k.cleanupLoop()

	return k
}

// Get returns the limiter for key, creating it on first use.
func (k *KeyedLimiter) Get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.limits[key]
	if !ok {
		l = rate.NewLimiter(k.r, k.b)
		k.limits[key] = l
	}
	return l
}

// Allow reports whether one event for key may happen now.
func (k *KeyedLimiter) Allow(key string) bool {
	return k.Get(key).Allow()
}

// Forget drops the limiter for key.
func (k *KeyedLimiter) Forget(key string) {
	k.mu.Lock()
	delete(k.limits, key)
	k.mu.Unlock()
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limits)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (k *KeyedLimiter) Stop() {
	k.stopOnce.Do(func() { close(k.stop) })
}

func (k *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-k.stop:
			return
		case now := <-ticker.C:
			removed, remaining := k.sweep(now)
			logx.Debug("Rate limiter cleanup finished.", "removed", removed, "remaining", remaining)
		}
	}
}

// sweep removes limiters whose bucket is full at now.
func (k *KeyedLimiter) sweep(now time.Time) (removed, remaining int) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for key, l := range k.limits {
		if l.TokensAt(now) >= float64(l.Burst()) {
			delete(k.limits, key)
			removed++
		}
	}
	return removed, len(k.limits)
}

// ClientIP extracts the host part of r.RemoteAddr (already rewritten by chi's RealIP).
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}

// Middleware rejects requests over the per-IP limit with ErrRateLimitExceeded.
func (k *KeyedLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !k.Allow(ClientIP(r)) {
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
