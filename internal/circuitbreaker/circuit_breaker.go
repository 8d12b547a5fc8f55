// Package circuitbreaker stops calls to a failing dependency for a cool-down
// period and lets a limited number of trial calls through afterwards.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrOpen = errors.New("circuit breaker is open")

type Config struct {
	Name string
	// MaxFailures consecutive failures open the breaker.
	MaxFailures int
	// Timeout is how long the breaker stays open before allowing trial calls.
	Timeout time.Duration
	// MaxRequests trial calls are allowed while half-open.
	MaxRequests int
}

const (
	defaultMaxFailures = 5
	defaultTimeout     = 30 * time.Second
	defaultMaxRequests = 1

	maxMaxFailures = 1000
	maxTimeout     = 10 * time.Minute
	maxMaxRequests = 100
)

func (c Config) sanitize(logger *logrus.Logger) Config {
	if c.Name == "" {
		c.Name = "unnamed"
	}
	fields := logrus.Fields{"circuit_breaker": c.Name}

	switch {
	case c.MaxFailures <= 0:
		logger.WithFields(fields).WithField("invalid_value", c.MaxFailures).Warn("Invalid MaxFailures, using default")
		c.MaxFailures = defaultMaxFailures
	case c.MaxFailures > maxMaxFailures:
		logger.WithFields(fields).WithField("invalid_value", c.MaxFailures).Warn("MaxFailures too high, capping")
		c.MaxFailures = maxMaxFailures
	}

	switch {
	case c.Timeout <= 0:
		logger.WithFields(fields).WithField("invalid_value", c.Timeout).Warn("Invalid Timeout, using default")
		c.Timeout = defaultTimeout
	case c.Timeout > maxTimeout:
		logger.WithFields(fields).WithField("invalid_value", c.Timeout).Warn("Timeout too high, capping")
		c.Timeout = maxTimeout
	}

	switch {
	case c.MaxRequests <= 0:
		c.MaxRequests = defaultMaxRequests
	case c.MaxRequests > maxMaxRequests:
		logger.WithFields(fields).WithField("invalid_value", c.MaxRequests).Warn("MaxRequests too high, capping")
		c.MaxRequests = maxMaxRequests
	}
	return c
}

// Metrics is a point-in-time snapshot of a breaker.
type Metrics struct {
	Name           string `json:"name"`
	State          string `json:"state"`
	Failures       int    `json:"failures"`
	TotalRequests  int64  `json:"total_requests"`
	TotalFailures  int64  `json:"total_failures"`
	TotalSuccesses int64  `json:"total_successes"`
	Rejected       int64  `json:"rejected"`
	StateChanges   int64  `json:"state_changes"`
}

type CircuitBreaker struct {
	cfg    Config
	logger *logrus.Logger
	now    func() time.Time

	mu               sync.Mutex
	state            State
	failures         int
	halfOpenRequests int
	openedAt         time.Time
	metrics          Metrics
}

func New(cfg Config, logger *logrus.Logger) *CircuitBreaker {
	cfg = cfg.sanitize(logger)
	return &CircuitBreaker{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Execute runs fn unless the breaker is open, in which case it returns ErrOpen
// without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.metrics.TotalFailures++
		cb.onFailure()
		return err
	}
	cb.metrics.TotalSuccesses++
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
			cb.metrics.Rejected++
			return ErrOpen
		}
		cb.setState(StateHalfOpen)
	}

	if cb.state == StateHalfOpen {
		if cb.halfOpenRequests >= cb.cfg.MaxRequests {
			cb.metrics.Rejected++
			return ErrOpen
		}
		cb.halfOpenRequests++
	}

	cb.metrics.TotalRequests++
	return nil
}

func (cb *CircuitBreaker) onSuccess() {
	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.setState(StateClosed)
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	if cb.state == StateHalfOpen || (cb.state == StateClosed && cb.failures >= cb.cfg.MaxFailures) {
		cb.openedAt = cb.now()
		cb.setState(StateOpen)
	}
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.halfOpenRequests = 0
	cb.metrics.StateChanges++

	cb.logger.WithFields(logrus.Fields{
		"circuit_breaker": cb.cfg.Name,
		"from_state":      from.String(),
		"to_state":        to.String(),
	}).Info("Circuit breaker state changed")
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Metrics() Metrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	m := cb.metrics
	m.Name = cb.cfg.Name
	m.State = cb.state.String()
	m.Failures = cb.failures
	return m
}
