package appview

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestCircuitBreaker_ClosedByDefault(t *testing.T) {
	cb := newCircuitBreaker(slog.Default())

	ok, err := cb.canAttempt("app.bsky.feed.getAuthorFeed")
	if !ok || err != nil {
		t.Errorf("fresh breaker must allow attempts, got ok=%v err=%v", ok, err)
	}
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := newCircuitBreaker(slog.Default())
	endpoint := "app.bsky.feed.getPosts"
	failure := errors.New("status 500")

	for i := 0; i < 3; i++ {
		if ok, _ := cb.canAttempt(endpoint); !ok {
			t.Fatalf("attempt %d should be allowed before threshold", i)
		}
		cb.recordFailure(endpoint, failure)
	}

	ok, err := cb.canAttempt(endpoint)
	if ok {
		t.Error("breaker must be open after 3 consecutive failures")
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_EndpointsIndependent(t *testing.T) {
	cb := newCircuitBreaker(slog.Default())
	failure := errors.New("down")

	for i := 0; i < 3; i++ {
		cb.recordFailure("app.bsky.feed.getPosts", failure)
	}

	if ok, _ := cb.canAttempt("app.bsky.actor.getProfile"); !ok {
		t.Error("an open circuit for one endpoint must not affect another")
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := newCircuitBreaker(slog.Default())
	endpoint := "app.bsky.feed.getAuthorFeed"
	failure := errors.New("flaky")

	cb.recordFailure(endpoint, failure)
	cb.recordFailure(endpoint, failure)
	cb.recordSuccess(endpoint)
	cb.recordFailure(endpoint, failure)
	cb.recordFailure(endpoint, failure)

	if ok, _ := cb.canAttempt(endpoint); !ok {
		t.Error("a success between failures must reset the consecutive count")
	}
}

func TestCircuitBreaker_HalfOpenAfterWindow(t *testing.T) {
	cb := newCircuitBreaker(slog.Default())
	cb.openDuration = 10 * time.Millisecond
	endpoint := "app.bsky.feed.getPosts"
	failure := errors.New("down")

	for i := 0; i < 3; i++ {
		cb.recordFailure(endpoint, failure)
	}
	if ok, _ := cb.canAttempt(endpoint); ok {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)

	if ok, _ := cb.canAttempt(endpoint); !ok {
		t.Error("breaker should half-open once the window elapses")
	}

	cb.recordSuccess(endpoint)
	if ok, _ := cb.canAttempt(endpoint); !ok {
		t.Error("a half-open success should close the breaker")
	}
}
