// Package ratelimit throttles calls to the classification endpoint with a
// coarse one-minute window and exponential backoff. It is approximate on
// purpose: the endpoint enforces its own hard limits.
package ratelimit

import (
	"context"
	"log"
	"math"
	"sync"
	"time"
)

const (
	// WindowSize is the span of the trailing window.
	WindowSize = 60 * time.Second
	// MaxBackoff caps a single wait.
	MaxBackoff = 60 * time.Second
	// backoffFactor is the growth per call over the limit.
	backoffFactor = 1.5
)

// Config holds the per-minute thresholds. Zero limits disable that check.
type Config struct {
	RequestsPerMinute int
	TokensPerMinute   int
	BaseInterval      time.Duration
}

// Window is the sliding state of recent calls.
type Window struct {
	Calls    int       `json:"calls"`
	Tokens   int       `json:"tokens"`
	LastCall time.Time `json:"lastCall"`
}

// Limiter decides how long a caller must wait before the next external call.
type Limiter struct {
	mu     sync.Mutex
	cfg    Config
	clock  Clock
	window Window
}

func New(cfg Config, clock Clock) *Limiter {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = time.Second
	}
	return &Limiter{cfg: cfg, clock: clock}
}

// Backoff returns min(base × 1.5^overage, MaxBackoff).
func Backoff(base time.Duration, overage int) time.Duration {
	if overage < 0 {
		overage = 0
	}
	d := float64(base) * math.Pow(backoffFactor, float64(overage))
	if d > float64(MaxBackoff) {
		return MaxBackoff
	}
	return time.Duration(d)
}

// BeforeCall blocks while the window is over its limits. The wait is
// ctx-aware; a cancelled wait returns the ctx error and leaves the counters
// untouched.
func (l *Limiter) BeforeCall(ctx context.Context) error {
	l.mu.Lock()
	now := l.clock.Now()
	elapsed := now.Sub(l.window.LastCall)
	if !l.window.LastCall.IsZero() && elapsed > WindowSize {
		l.window.Calls = 0
		l.window.Tokens = 0
	}

	overLimit, overage := l.overLimit()
	if !overLimit {
		l.mu.Unlock()
		return nil
	}

	wait := Backoff(l.cfg.BaseInterval, overage)
	if elapsed >= wait {
		l.mu.Unlock()
		return nil
	}
	remaining := wait - elapsed
	calls, tokens := l.window.Calls, l.window.Tokens
	l.mu.Unlock()

	log.Printf("⏳ Rate limit reached (%d calls, %d tokens in window), backing off %v", calls, tokens, remaining)
	if err := l.clock.Sleep(ctx, remaining); err != nil {
		return err
	}

	l.mu.Lock()
	l.window.Calls = 0
	l.mu.Unlock()
	return nil
}

// overLimit reports whether either threshold is reached and how far over
// the request limit the window is.
func (l *Limiter) overLimit() (bool, int) {
	if l.cfg.RequestsPerMinute > 0 && l.window.Calls >= l.cfg.RequestsPerMinute {
		return true, l.window.Calls - l.cfg.RequestsPerMinute
	}
	if l.cfg.TokensPerMinute > 0 && l.window.Tokens >= l.cfg.TokensPerMinute {
		return true, 0
	}
	return false, 0
}

// Record registers one completed call and the tokens it reported.
func (l *Limiter) Record(tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.window.Calls++
	if tokens > 0 {
		l.window.Tokens += tokens
	}
	l.window.LastCall = l.clock.Now()
}

// Snapshot returns a copy of the current window.
func (l *Limiter) Snapshot() Window {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.window
}
