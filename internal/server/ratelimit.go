package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/thruflo/taskboard/internal/logging"
)

// RateLimitConfig holds rate limiting configuration for board mutations.
type RateLimitConfig struct {
	MaxRequests int           // Mutations allowed per window (default: 120)
	Window      time.Duration // Sliding window (default: 1 minute)
	BlockAfter  int           // Rejected requests before the client is blocked (default: 20)
	BlockTime   time.Duration // Base block duration, doubles each block (default: 1 minute)
}

// DefaultRateLimitConfig returns the default rate limiting configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 120,
		Window:      time.Minute,
		BlockAfter:  20,
		BlockTime:   time.Minute,
	}
}

// maxBlock caps the exponential backoff.
const maxBlock = time.Hour

// rateLimiter implements a sliding window rate limiter per client IP.
// Clients that keep sending after being limited are blocked with
// exponential backoff.
type rateLimiter struct {
	mu     sync.Mutex
	config RateLimitConfig
	log    *logging.Logger

	// attempts tracks timestamps of accepted requests per IP
	attempts map[string][]time.Time

	// strikes counts rejected requests per IP
	strikes map[string]int

	// blocked maps IP to the time its block expires
	blocked map[string]time.Time
}

// newRateLimiter creates a rate limiter, filling zero fields with defaults.
func newRateLimiter(config RateLimitConfig, log *logging.Logger) *rateLimiter {
	def := DefaultRateLimitConfig()
	if config.MaxRequests <= 0 {
		config.MaxRequests = def.MaxRequests
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.BlockAfter <= 0 {
		config.BlockAfter = def.BlockAfter
	}
	if config.BlockTime <= 0 {
		config.BlockTime = def.BlockTime
	}
	if log == nil {
		log = logging.Default()
	}

	return &rateLimiter{
		config:   config,
		log:      log,
		attempts: make(map[string][]time.Time),
		strikes:  make(map[string]int),
		blocked:  make(map[string]time.Time),
	}
}

// checkResult represents the result of a rate limit check.
type checkResult struct {
	Allowed    bool
	RetryAfter time.Duration // How long until the client can retry
	IsBlocked  bool          // True if blocked for repeatedly exceeding the limit
	Reason     string
}

// check records a request from ip and reports whether it may proceed.
func (rl *rateLimiter) check(ip string) checkResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	if expiry, isBlocked := rl.blocked[ip]; isBlocked {
		if now.Before(expiry) {
			return checkResult{
				RetryAfter: expiry.Sub(now),
				IsBlocked:  true,
				Reason:     "too many requests, client blocked",
			}
		}
		delete(rl.blocked, ip)
	}

	rl.attempts[ip] = rl.inWindow(rl.attempts[ip], now)

	current := len(rl.attempts[ip])
	if current < rl.config.MaxRequests {
		rl.attempts[ip] = append(rl.attempts[ip], now)
		return checkResult{Allowed: true}
	}

	rl.strikes[ip]++
	if block, ok := rl.blockFor(rl.strikes[ip]); ok {
		rl.blocked[ip] = now.Add(block)
		rl.log.Warn("client blocked", "ip", ip, "duration", block, "rejected", rl.strikes[ip])
		return checkResult{
			RetryAfter: block,
			IsBlocked:  true,
			Reason:     "too many requests, client blocked",
		}
	}

	// The oldest request in the window is the next to expire.
	retryAfter := rl.attempts[ip][0].Add(rl.config.Window).Sub(now)
	if retryAfter <= 0 {
		retryAfter = time.Second
	}
	return checkResult{
		RetryAfter: retryAfter,
		Reason:     "rate limit exceeded",
	}
}

// blockFor returns the block duration after the given number of strikes:
// BlockTime * 2^(blocks-1), capped at maxBlock.
func (rl *rateLimiter) blockFor(strikes int) (time.Duration, bool) {
	if strikes < rl.config.BlockAfter || strikes%rl.config.BlockAfter != 0 {
		return 0, false
	}
	blocks := (strikes - rl.config.BlockAfter) / rl.config.BlockAfter
	d := rl.config.BlockTime * time.Duration(1<<min(blocks, 16))
	return min(d, maxBlock), true
}

// inWindow drops timestamps older than the window.
func (rl *rateLimiter) inWindow(timestamps []time.Time, now time.Time) []time.Time {
	windowStart := now.Add(-rl.config.Window)
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	return valid
}

// cleanup removes expired entries. Called periodically while serving.
func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	for ip, timestamps := range rl.attempts {
		valid := rl.inWindow(timestamps, now)
		if len(valid) == 0 {
			delete(rl.attempts, ip)
		} else {
			rl.attempts[ip] = valid
		}
	}

	for ip, expiry := range rl.blocked {
		if now.After(expiry) {
			delete(rl.blocked, ip)
		}
	}

	// Strikes are kept only for clients that are still active or blocked.
	for ip := range rl.strikes {
		_, isBlocked := rl.blocked[ip]
		_, isActive := rl.attempts[ip]
		if !isBlocked && !isActive {
			delete(rl.strikes, ip)
		}
	}
}

// extractIP extracts the client IP from the request.
// It checks X-Forwarded-For and X-Real-IP headers first (for reverse proxy scenarios),
// then falls back to the remote address.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}
