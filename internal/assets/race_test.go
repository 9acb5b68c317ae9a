package assets

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRaceCompletesBeforeDeadline(t *testing.T) {
	result := Race(context.Background(), time.Second, func(ctx context.Context, publish func(string)) (string, error) {
		return "final", nil
	})
	if result.State != RaceComplete {
		t.Fatalf("expected complete, got %v", result.State)
	}
	if !result.HasValue || result.Value != "final" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRaceNeverCompletingOperationResolvesWithinDeadline(t *testing.T) {
	const deadline = 50 * time.Millisecond
	started := time.Now()
	result := Race(context.Background(), deadline, func(ctx context.Context, publish func(string)) (string, error) {
		<-make(chan struct{}) // never completes
		return "", nil
	})
	elapsed := time.Since(started)

	if result.State != RaceTimedOut {
		t.Fatalf("expected timeout, got %v", result.State)
	}
	if result.HasValue {
		t.Fatalf("expected no value for a silent operation")
	}
	if elapsed > deadline+250*time.Millisecond {
		t.Fatalf("race blocked well past the deadline: %v", elapsed)
	}
}

func TestRaceTimeoutDeliversBestPartial(t *testing.T) {
	published := make(chan struct{})
	result := Race(context.Background(), 50*time.Millisecond, func(ctx context.Context, publish func(string)) (string, error) {
		publish("degraded")
		close(published)
		<-ctx.Done()
		return "", ctx.Err()
	})
	<-published

	if result.State != RaceTimedOut {
		t.Fatalf("expected timeout, got %v", result.State)
	}
	if !result.HasValue || result.Value != "degraded" {
		t.Fatalf("expected the published partial, got %+v", result)
	}
}

func TestRaceCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result := Race(ctx, time.Second, func(ctx context.Context, publish func(string)) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	if result.State != RaceCancelled && result.State != RaceFailed {
		t.Fatalf("expected cancellation to resolve the race, got %v", result.State)
	}
	if result.State == RaceCancelled && result.HasValue {
		t.Fatalf("expected no value on cancellation without partials")
	}
}

func TestRaceOperationFailure(t *testing.T) {
	result := Race(context.Background(), time.Second, func(ctx context.Context, publish func(string)) (string, error) {
		return "", errors.New("fetch failed")
	})
	if result.State != RaceFailed {
		t.Fatalf("expected failure, got %v", result.State)
	}
	if result.HasValue {
		t.Fatalf("expected no value on failure without partials")
	}
}

func TestRaceFailureKeepsPartial(t *testing.T) {
	result := Race(context.Background(), time.Second, func(ctx context.Context, publish func(string)) (string, error) {
		publish("degraded")
		return "", errors.New("full fetch failed")
	})
	if result.State != RaceFailed {
		t.Fatalf("expected failure, got %v", result.State)
	}
	if !result.HasValue || result.Value != "degraded" {
		t.Fatalf("expected the partial to survive, got %+v", result)
	}
}

func TestRaceResolvesExactlyOnceUnderContention(t *testing.T) {
	// Deadline and completion land at the same instant, repeatedly; the
	// caller must always get exactly one well-formed result.
	for i := 0; i < 200; i++ {
		result := Race(context.Background(), time.Millisecond, func(ctx context.Context, publish func(int)) (int, error) {
			time.Sleep(time.Millisecond)
			return 42, nil
		})
		switch result.State {
		case RaceComplete:
			if result.Value != 42 {
				t.Fatalf("iteration %d: complete with wrong value %d", i, result.Value)
			}
		case RaceTimedOut:
			if result.HasValue {
				t.Fatalf("iteration %d: timeout carrying a value that was never published", i)
			}
		default:
			t.Fatalf("iteration %d: unexpected state %v", i, result.State)
		}
	}
}
