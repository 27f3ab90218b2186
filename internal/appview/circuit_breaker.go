package appview

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// circuitState represents the state of one endpoint's breaker
type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Endpoint failing, calls short-circuited
	stateHalfOpen                     // Testing if the endpoint recovered
)

// circuitBreaker tracks consecutive failures per AppView endpoint and
// stops calling an endpoint that keeps failing, so a flapping AppView does
// not stall every foreground fetch on doomed requests.
type circuitBreaker struct {
	failures         map[string]int
	lastFailure      map[string]time.Time
	state            map[string]circuitState
	failureThreshold int
	openDuration     time.Duration
	logger           *slog.Logger
	mu               sync.Mutex
}

func newCircuitBreaker(logger *slog.Logger) *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: 3,               // Open after 3 consecutive failures
		openDuration:     2 * time.Minute, // Matches the feed cache TTL
		failures:         make(map[string]int),
		lastFailure:      make(map[string]time.Time),
		state:            make(map[string]circuitState),
		logger:           logger,
	}
}

// canAttempt reports whether the endpoint should be called. An open
// circuit transitions to half-open once the open window has elapsed.
func (cb *circuitBreaker) canAttempt(endpoint string) (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state[endpoint] {
	case stateOpen:
		if time.Since(cb.lastFailure[endpoint]) > cb.openDuration {
			cb.state[endpoint] = stateHalfOpen
			cb.logger.Info("circuit half-open, testing endpoint", "endpoint", endpoint)
			return true, nil
		}
		return false, fmt.Errorf("%w for %s (failures: %d, retry after %s)",
			ErrCircuitOpen, endpoint, cb.failures[endpoint],
			cb.lastFailure[endpoint].Add(cb.openDuration).Format("15:04:05"))
	default:
		return true, nil
	}
}

// recordSuccess closes the endpoint's circuit and resets failure tracking.
func (cb *circuitBreaker) recordSuccess(endpoint string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state[endpoint] != stateClosed {
		cb.logger.Info("circuit closed, endpoint recovered", "endpoint", endpoint)
	}
	delete(cb.failures, endpoint)
	delete(cb.lastFailure, endpoint)
	cb.state[endpoint] = stateClosed
}

// recordFailure counts a failed call and opens the circuit at the
// threshold.
func (cb *circuitBreaker) recordFailure(endpoint string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[endpoint]++
	cb.lastFailure[endpoint] = time.Now()

	if cb.failures[endpoint] >= cb.failureThreshold {
		if cb.state[endpoint] != stateOpen {
			cb.logger.Warn("circuit opened for endpoint",
				"endpoint", endpoint, "failures", cb.failures[endpoint], "error", err)
		}
		cb.state[endpoint] = stateOpen
		return
	}
	cb.logger.Debug("endpoint failure recorded",
		"endpoint", endpoint, "failures", cb.failures[endpoint],
		"threshold", cb.failureThreshold, "error", err)
}
