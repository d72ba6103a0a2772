// Package ratelimit caps how many requests one client may make in a fixed
// window. The server applies it to writes only.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Config sets the budget of each client. Zero values fall back to
// DefaultConfig.
type Config struct {
	// PerWindow is how many requests a client may make per Window.
	PerWindow int
	Window    time.Duration
	// IdleAfter is how long a client may stay silent before it is forgotten.
	IdleAfter time.Duration
	// SweepEvery is how often forgotten clients are dropped.
	SweepEvery time.Duration
}

func DefaultConfig() Config {
	return Config{
		PerWindow:  60,
		Window:     time.Minute,
		IdleAfter:  10 * time.Minute,
		SweepEvery: 5 * time.Minute,
	}
}

// Limiter counts requests per client key.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	done     chan struct{}
	stopOnce sync.Once
}

// bucket is one client's current window.
type bucket struct {
	opened time.Time
	seen   time.Time
	used   int
}

// NewLimiter returns a running limiter. Stop ends its sweeper.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.PerWindow <= 0 {
		cfg.PerWindow = def.PerWindow
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = def.IdleAfter
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = def.SweepEvery
	}
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Take spends one request of key's budget. When the budget is gone it
// returns false and the time until the window reopens.
func (l *Limiter) Take(key string) (ok bool, retryIn time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.buckets[key]
	if b == nil || now.Sub(b.opened) >= l.cfg.Window {
		l.buckets[key] = &bucket{opened: now, seen: now, used: 1}
		return true, 0
	}
	b.seen = now
	b.used++
	if b.used <= l.cfg.PerWindow {
		return true, 0
	}
	return false, b.opened.Add(l.cfg.Window).Sub(now)
}

// Allow is Take without the retry hint.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.Take(key)
	return ok
}

// Clients returns how many keys are being tracked.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweepLoop() {
	t := time.NewTicker(l.cfg.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-t.C:
			l.sweep()
		}
	}
}

// sweep forgets keys idle for longer than IdleAfter and returns how many
// it dropped.
func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.IdleAfter)
	dropped := 0
	for key, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, key)
			dropped++
		}
	}
	return dropped
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Rule decides which requests a Handler counts and how it answers the
// ones over budget.
type Rule struct {
	// Key identifies the client, usually by address.
	Key func(*http.Request) string
	// Match selects the counted requests. Nil counts all of them.
	Match func(*http.Request) bool
	// Reject writes the response for a request over budget. Nil sends a
	// plain 429.
	Reject func(http.ResponseWriter, *http.Request)
}

// Handler returns middleware enforcing the limiter under rule. Rejected
// responses carry a Retry-After header in whole seconds.
func (l *Limiter) Handler(rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rule.Match != nil && !rule.Match(r) {
				next.ServeHTTP(w, r)
				return
			}
			ok, retryIn := l.Take(rule.Key(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryIn.Seconds()))))
			if rule.Reject != nil {
				rule.Reject(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}
}
