package events

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures = 5
	openTimeout = 30 * time.Second
	maxBackoff  = 30 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker stops a transport from hammering a broker that keeps failing.
// After maxFailures consecutive failures it opens for openTimeout, then lets
// one attempt through (half-open).
type Breaker struct {
	state        int32
	failureCount int64

	mu          sync.Mutex
	lastFailure time.Time
	now         func() time.Time
}

func NewBreaker() *Breaker {
	return &Breaker{now: time.Now}
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() bool {
	if atomic.LoadInt32(&b.state) != StateOpen {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clock().Sub(b.lastFailure) > openTimeout {
		atomic.StoreInt32(&b.state, StateHalfOpen)
		return true
	}
	return false
}

func (b *Breaker) RecordSuccess() {
	atomic.StoreInt64(&b.failureCount, 0)
	atomic.StoreInt32(&b.state, StateClosed)
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	b.lastFailure = b.clock()
	b.mu.Unlock()

	n := atomic.AddInt64(&b.failureCount, 1)
	if n >= maxFailures || atomic.LoadInt32(&b.state) == StateHalfOpen {
		atomic.StoreInt32(&b.state, StateOpen)
	}
}

func (b *Breaker) State() int32 { return atomic.LoadInt32(&b.state) }

func (b *Breaker) clock() time.Time {
	if b.now == nil {
		return time.Now()
	}
	return b.now()
}

// Backoff doubles from one second per attempt, capped at 30s.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// IsConnectionError reports errors that call for a reconnect rather than a retry.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
