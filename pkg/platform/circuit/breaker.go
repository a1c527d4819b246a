// Package circuit guards calls to a flaky dependency. After enough
// consecutive failures the breaker opens and rejects calls until a cooldown
// passes; then it lets probes through and closes once enough succeed.
package circuit

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// StateChange reports a transition caused by a Record call.
type StateChange struct {
	Opened bool
	Closed bool
}

type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	clock            func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
}

type Option func(*Breaker)

// WithFailureThreshold sets the consecutive failures that open the circuit (default 5).
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the consecutive probe successes that close it (default 3).
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithCooldown sets how long an open circuit rejects calls (default 30s).
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(b *Breaker) {
		if clock != nil {
			b.clock = clock
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 3,
		cooldown:         30 * time.Second,
		clock:            time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Allow reports whether a call may proceed. An open circuit turns half-open
// once the cooldown has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return true
	}
	if b.clock().Sub(b.openedAt) < b.cooldown {
		return false
	}
	b.state = StateHalfOpen
	b.successes = 0
	return true
}

func (b *Breaker) RecordFailure() StateChange {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes = 0
	switch b.state {
	case StateOpen:
		return StateChange{}
	case StateHalfOpen:
		b.trip()
		return StateChange{Opened: true}
	}
	b.failures++
	if b.failures >= b.failureThreshold {
		b.trip()
		return StateChange{Opened: true}
	}
	return StateChange{}
}

func (b *Breaker) RecordSuccess() StateChange {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.successes++
		if b.successes < b.successThreshold {
			return StateChange{}
		}
		b.reset()
		return StateChange{Closed: true}
	}
	b.failures = 0
	return StateChange{}
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.clock()
	b.failures = 0
}

func (b *Breaker) reset() {
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
