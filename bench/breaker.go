package bench

import (
	"errors"
	"sync"

	"github.com/shaynamir/archbench/archbench"
)

// ErrBreakerOpen is the resumable run-level fault surfaced when consecutive
// Error outcomes suggest the gateway or model endpoint is down.
var ErrBreakerOpen = errors.New("circuit breaker open")

// DefaultBreakerThreshold trips the breaker after this many consecutive
// Error outcomes.
const DefaultBreakerThreshold = 5

// Breaker watches the outcome stream for infrastructure-level failure. Only
// Error outcomes count; Failure and Timeout are legitimate benchmark results
// and reset the streak like Success does. Once open, the breaker stays open
// for the rest of the run; recovery is a resume after the outage clears.
type Breaker struct {
	mu          sync.Mutex
	threshold   int
	consecutive int
	open        bool
}

// NewBreaker creates a breaker; threshold <= 0 uses the default.
func NewBreaker(threshold int) *Breaker {
	if threshold <= 0 {
		threshold = DefaultBreakerThreshold
	}
	return &Breaker{threshold: threshold}
}

// Allow reports whether new units may be dispatched.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.open {
		return ErrBreakerOpen
	}
	return nil
}

// Record feeds one unit outcome into the breaker.
func (b *Breaker) Record(status archbench.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status != archbench.StatusError {
		b.consecutive = 0
		return
	}
	b.consecutive++
	if b.consecutive >= b.threshold {
		b.open = true
	}
}

// Open reports whether the breaker has tripped.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}
