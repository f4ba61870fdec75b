package main

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter counts requests per client IP over fixed one-minute windows.
type RateLimiter struct {
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	seen   map[string]*windowInfo
	limit  int
	window time.Duration
}

type windowInfo struct {
	count   int
	startAt time.Time
}

// NewRateLimiter returns a limiter allowing limit requests per IP per
// minute, with a background goroutine that evicts stale windows.
func NewRateLimiter(limit int) *RateLimiter {
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		ctx:    ctx,
		cancel: cancel,
		seen:   make(map[string]*windowInfo),
		limit:  limit,
		window: time.Minute,
	}

	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for ip, info := range rl.seen {
				if now.Sub(info.startAt) > rl.window {
					delete(rl.seen, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	if rl.cancel != nil {
		rl.cancel()
	}
}

// Allow records one request from ip and reports whether it fits in the
// current window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	info, exists := rl.seen[ip]
	if !exists || now.Sub(info.startAt) >= rl.window {
		rl.seen[ip] = &windowInfo{count: 1, startAt: now}
		return true
	}

	info.count++
	return info.count <= rl.limit
}

// clientIP strips the port from RemoteAddr. RealIP middleware has already
// rewritten it from forwarding headers where present.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// rateLimitMiddleware rejects clients exceeding the per-IP request budget.
func rateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !limiter.Allow(ip) {
				log.Warnw("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				respondJSON(w, http.StatusTooManyRequests, ErrorResponse{
					Message:    "too many requests, slow down",
					StatusCode: http.StatusTooManyRequests,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
