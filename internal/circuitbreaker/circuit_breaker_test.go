package circuitbreaker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

var errBoom = errors.New("boom")

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(cfg Config) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := New(cfg, quietLogger())
	cb.now = clock.Now
	return cb, clock
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestOpensAfterMaxFailures(t *testing.T) {
	cb, _ := newTestBreaker(Config{Name: "kafka", MaxFailures: 3, Timeout: time.Minute})

	for i := 0; i < 2; i++ {
		if err := cb.Execute(fail); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: expected errBoom, got %v", i, err)
		}
		if cb.State() != StateClosed {
			t.Fatalf("attempt %d: expected closed, got %s", i, cb.State())
		}
	}

	cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Fatalf("expected open after 3 failures, got %s", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
	if called {
		t.Error("function must not run while open")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(Config{MaxFailures: 2, Timeout: time.Minute})

	cb.Execute(fail)
	cb.Execute(succeed)
	cb.Execute(fail)

	if cb.State() != StateClosed {
		t.Errorf("non-consecutive failures must not open the breaker, got %s", cb.State())
	}
}

func TestHalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(Config{MaxFailures: 1, Timeout: 10 * time.Second, MaxRequests: 1})

	cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	clock.Advance(11 * time.Second)
	if err := cb.Execute(succeed); err != nil {
		t.Fatalf("trial call should run: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed after successful trial, got %s", cb.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(Config{MaxFailures: 1, Timeout: 10 * time.Second})

	cb.Execute(fail)
	clock.Advance(11 * time.Second)
	cb.Execute(fail)

	if cb.State() != StateOpen {
		t.Fatalf("expected open after failed trial, got %s", cb.State())
	}
	if err := cb.Execute(succeed); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen right after reopening, got %v", err)
	}
}

func TestHalfOpenLimitsTrialRequests(t *testing.T) {
	cb, clock := newTestBreaker(Config{MaxFailures: 1, Timeout: time.Second, MaxRequests: 1})

	cb.Execute(fail)
	clock.Advance(2 * time.Second)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- cb.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	if err := cb.Execute(succeed); !errors.Is(err, ErrOpen) {
		t.Errorf("second trial should be rejected while first is in flight, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("first trial failed: %v", err)
	}
}

func TestMetricsAreConsistentUnderConcurrency(t *testing.T) {
	cb := New(Config{Name: "concurrent", MaxFailures: 3, Timeout: 5 * time.Millisecond, MaxRequests: 2}, quietLogger())

	var wg sync.WaitGroup
	for g := 0; g < 50; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if (g+i)%3 == 0 {
					cb.Execute(fail)
				} else {
					cb.Execute(succeed)
				}
			}
		}(g)
	}
	wg.Wait()

	m := cb.Metrics()
	if m.TotalRequests != m.TotalFailures+m.TotalSuccesses {
		t.Errorf("inconsistent metrics: requests=%d failures=%d successes=%d",
			m.TotalRequests, m.TotalFailures, m.TotalSuccesses)
	}
	if m.TotalRequests+m.Rejected != 50*20 {
		t.Errorf("every call must be admitted or rejected: admitted=%d rejected=%d", m.TotalRequests, m.Rejected)
	}
}

func TestConfigSanitize(t *testing.T) {
	cb := New(Config{MaxFailures: -1, Timeout: time.Hour, MaxRequests: 1000}, quietLogger())

	if cb.cfg.Name != "unnamed" {
		t.Errorf("expected default name, got %q", cb.cfg.Name)
	}
	if cb.cfg.MaxFailures != defaultMaxFailures {
		t.Errorf("expected MaxFailures %d, got %d", defaultMaxFailures, cb.cfg.MaxFailures)
	}
	if cb.cfg.Timeout != maxTimeout {
		t.Errorf("expected Timeout capped at %s, got %s", maxTimeout, cb.cfg.Timeout)
	}
	if cb.cfg.MaxRequests != maxMaxRequests {
		t.Errorf("expected MaxRequests capped at %d, got %d", maxMaxRequests, cb.cfg.MaxRequests)
	}
}
