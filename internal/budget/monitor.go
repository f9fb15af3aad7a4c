package budget

import (
	"fmt"
	"sync"
	"time"
)

// Limits reported in ErrExceeded.Kind.
const (
	KindTransitions = "transitions"
	KindDeadline    = "deadline"
)

// ErrExceeded reports a run that went past one of its limits.
type ErrExceeded struct {
	Kind  string
	Usage string
	Limit string
}

func (e ErrExceeded) Error() string {
	return fmt.Sprintf("run %s limit reached (%s of %s)", e.Kind, e.Usage, e.Limit)
}

// Monitor tracks transitions and elapsed time of one run against its limits.
type Monitor struct {
	config      Config
	transitions int
	startTime   time.Time
	now         func() time.Time
	mu          sync.Mutex
}

// NewMonitor clones the provided config and starts tracking usage.
func NewMonitor(cfg Config) *Monitor {
	return newMonitor(cfg, time.Now)
}

func newMonitor(cfg Config, now func() time.Time) *Monitor {
	return &Monitor{
		config:    cfg.Clone(),
		startTime: now(),
		now:       now,
	}
}

// Transition records one step execution, returning an error once the ceiling is breached.
func (m *Monitor) Transition() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions++
	if limit := m.config.Transitions(); m.transitions > limit {
		return ErrExceeded{
			Kind:  KindTransitions,
			Usage: fmt.Sprintf("%d steps", m.transitions),
			Limit: fmt.Sprintf("%d steps", limit),
		}
	}
	return nil
}

// CheckTime verifies elapsed time against the configured deadline.
func (m *Monitor) CheckTime() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	elapsed := m.now().Sub(m.startTime)
	limit := m.config.Timeout()
	if elapsed >= limit {
		return ErrExceeded{
			Kind:  KindDeadline,
			Usage: elapsed.String(),
			Limit: limit.String(),
		}
	}
	return nil
}

// Deadline is the wall-clock instant the run must finish by.
func (m *Monitor) Deadline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startTime.Add(m.config.Timeout())
}

// Usage returns the accumulated metrics.
func (m *Monitor) Usage() (transitions int, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitions, m.now().Sub(m.startTime)
}
