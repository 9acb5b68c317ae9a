package assets

import (
	"context"
	"sync"
	"time"
)

// RaceState is the terminal state of one raced load.
type RaceState int

const (
	// RaceComplete means the operation finished before the deadline.
	RaceComplete RaceState = iota
	// RaceTimedOut means the deadline fired first; the result carries the
	// best partial seen so far, if any.
	RaceTimedOut
	// RaceCancelled means the caller's context was cancelled.
	RaceCancelled
	// RaceFailed means the operation returned an error before the deadline.
	RaceFailed
)

// RaceResult is delivered exactly once per race. HasValue distinguishes
// timed-out-with-partial from timed-out-with-nothing.
type RaceResult[T any] struct {
	State    RaceState
	Value    T
	HasValue bool
}

// raceTicket guards a single race: one lock, one resolved flag, and the best
// observed partial. Completion, timeout, and cancellation all funnel through
// resolve; the first to observe !resolved flips it and delivers, the losers
// are no-ops. Getting this wrong reintroduces hang and double-resolve bugs,
// so nothing else may touch these fields.
type raceTicket[T any] struct {
	mu       sync.Mutex
	resolved bool
	best     T
	hasBest  bool
	outcome  chan RaceResult[T]
}

func newRaceTicket[T any]() *raceTicket[T] {
	return &raceTicket[T]{outcome: make(chan RaceResult[T], 1)}
}

// publish records a partial result; it is dropped after resolution.
func (t *raceTicket[T]) publish(value T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved {
		return
	}
	t.best, t.hasBest = value, true
}

// resolve delivers a final value. Reports whether this call won the race.
func (t *raceTicket[T]) resolve(state RaceState, value T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved {
		return false
	}
	t.resolved = true
	t.outcome <- RaceResult[T]{State: state, Value: value, HasValue: true}
	return true
}

// resolveBest delivers whatever partial has been published, or nothing.
func (t *raceTicket[T]) resolveBest(state RaceState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved {
		return false
	}
	t.resolved = true
	t.outcome <- RaceResult[T]{State: state, Value: t.best, HasValue: t.hasBest}
	return true
}

// Race runs op against a deadline and returns the best available result at
// whichever of natural completion, timeout, or cancellation occurs first.
// op receives a publish callback for progressive partial results and a
// context that is cancelled as soon as the race is decided; a well-behaved op
// returns promptly after that, but Race does not wait for it. Race never
// blocks past the deadline, even when op never returns.
func Race[T any](ctx context.Context, deadline time.Duration, op func(ctx context.Context, publish func(T)) (T, error)) RaceResult[T] {
	ticket := newRaceTicket[T]()
	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		value, err := op(opCtx, ticket.publish)
		if err != nil {
			ticket.resolveBest(RaceFailed)
			return
		}
		ticket.resolve(RaceComplete, value)
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	// Resolve before cancelling: once the flag is flipped the op goroutine's
	// own late resolution is a no-op, so the delivered state is always the
	// one that actually decided the race.
	select {
	case result := <-ticket.outcome:
		return result
	case <-timer.C:
		ticket.resolveBest(RaceTimedOut)
		cancel()
	case <-ctx.Done():
		ticket.resolveBest(RaceCancelled)
		cancel()
	}
	// The op goroutine may have resolved concurrently; either way exactly one
	// result is in the buffered channel by now.
	return <-ticket.outcome
}
