package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter implements a per-IP sliding window rate limiter for the write
// endpoint. It protects the store from a misbehaving embed snippet, not from
// a determined attacker.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	enabled bool
}

type client struct {
	requests []time.Time
}

// NewRateLimiter creates a rate limiter with the given limit per window.
// A limit of 0 disables rate limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		window:  window,
		enabled: limit > 0,
	}
	if rl.enabled {
		go rl.cleanup()
	}
	return rl
}

// Allow checks if the given IP is allowed to make a request.
func (rl *RateLimiter) Allow(ip string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	c, exists := rl.clients[ip]
	if !exists {
		c = &client{}
		rl.clients[ip] = c
	}

	valid := c.requests[:0]
	for _, t := range c.requests {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	c.requests = valid

	if len(c.requests) >= rl.limit {
		return false
	}
	c.requests = append(c.requests, now)
	return true
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.window)
		for ip, c := range rl.clients {
			valid := c.requests[:0]
			for _, t := range c.requests {
				if t.After(cutoff) {
					valid = append(valid, t)
				}
			}
			if len(valid) == 0 {
				delete(rl.clients, ip)
			} else {
				c.requests = valid
			}
		}
		rl.mu.Unlock()
	}
}

// extractIP extracts the client IP from the request, respecting
// X-Forwarded-For and X-Real-IP for proxied traffic.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
