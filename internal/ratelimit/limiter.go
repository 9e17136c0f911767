// Package ratelimit throttles expensive operations (generation, voting) per
// caller with token buckets. Both the MCP tools and the HTTP API use it.
package ratelimit

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// ErrLimited is returned when a bucket is empty.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter keeps one token bucket per key. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int     // bucket size, also the initial token count
	nowFunc func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewLimiter creates a limiter refilling rate tokens per second up to burst.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow takes a token from key's bucket and reports whether one was left.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), last: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Operation names with their own limits.
const (
	OpGenerate = "generate"
	OpVote     = "vote"
	OpAnalyze  = "analyze"
	OpImport   = "import"
)

// Limiters maps operation names to their limiters.
type Limiters map[string]*Limiter

// DefaultLimiters returns the per-operation limits. Reads are not limited.
func DefaultLimiters() Limiters {
	return Limiters{
		OpGenerate: NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
		OpVote:     NewLimiter(1.0, 10),      // 60/minute, burst 10
		OpAnalyze:  NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		OpImport:   NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
	}
}

// Check takes a token for op on behalf of caller. Operations without a
// limiter are always allowed.
func (ls Limiters) Check(op, caller string) error {
	l, ok := ls[op]
	if !ok {
		return nil
	}
	if !l.Allow(op + "|" + caller) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrLimited, op)
	}
	return nil
}

// Middleware limits op per client address and answers 429 when exhausted.
func (ls Limiters) Middleware(op string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ls.Check(op, clientAddr(r)); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, "{\"error\":%q}\n", err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
