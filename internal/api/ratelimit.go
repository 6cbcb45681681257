package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter is a per-key sliding-window limiter
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	keyFunc func(r *http.Request) string
	now     func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Limit   int           // Max requests per window
	Window  time.Duration // Time window
	KeyFunc func(r *http.Request) string
	Now     func() time.Time
}

// NewRateLimiter creates a limiter and starts its sweeper
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = GetClientIP
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rl := &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   cfg.Limit,
		window:  cfg.Window,
		keyFunc: cfg.KeyFunc,
		now:     cfg.Now,
		stopCh:  make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// sweep drops idle keys once per window
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, stamps := range rl.windows {
				if stamps = prune(stamps, now, rl.window); len(stamps) == 0 {
					delete(rl.windows, key)
				} else {
					rl.windows[key] = stamps
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop stops the sweeper. Safe to call multiple times.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

// Allow records the request and reports whether it fits in the window
func (rl *RateLimiter) Allow(r *http.Request) bool {
	key := rl.keyFunc(r)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	stamps := prune(rl.windows[key], now, rl.window)
	if len(stamps) >= rl.limit {
		rl.windows[key] = stamps
		return false
	}
	rl.windows[key] = append(stamps, now)
	return true
}

// prune removes timestamps older than the window; stamps are in order
func prune(stamps []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	i := 0
	for i < len(stamps) && stamps[i].Before(cutoff) {
		i++
	}
	return stamps[i:]
}

// Middleware returns HTTP middleware for rate limiting
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r) {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClientIP returns the request's host without port.
// middleware.RealIP has already rewritten RemoteAddr from the proxy headers;
// reading X-Forwarded-For again here would let clients pick their own key.
func GetClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimiters holds all rate limiters for the application
type RateLimiters struct {
	Global *RateLimiter
	Export *RateLimiter

	// exportSlots caps concurrent CSV exports; a cold cache means a full
	// regeneration against the data source
	exportSlots chan struct{}
}

// NewRateLimiters creates the standard rate limiters
func NewRateLimiters() *RateLimiters {
	return &RateLimiters{
		// 100 requests per minute per IP
		Global: NewRateLimiter(RateLimitConfig{Limit: 100, Window: time.Minute}),
		// 5 exports per minute per IP
		Export:      NewRateLimiter(RateLimitConfig{Limit: 5, Window: time.Minute}),
		exportSlots: make(chan struct{}, 2),
	}
}

// Stop stops all rate limiter sweepers
func (rls *RateLimiters) Stop() {
	rls.Global.Stop()
	rls.Export.Stop()
}

// ExportGuard applies the export rate limit and the concurrency cap.
// Returns 429 if rate limited, 503 if every export slot is busy.
func (rls *RateLimiters) ExportGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rls.Export.Allow(r) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rls.Export.window.Seconds())))
			http.Error(w, "Export rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		select {
		case rls.exportSlots <- struct{}{}:
			defer func() { <-rls.exportSlots }()
		default:
			http.Error(w, "Export capacity full, try again shortly", http.StatusServiceUnavailable)
			return
		}

		next.ServeHTTP(w, r)
	})
}
