package budget

import (
	"fmt"
	"time"
)

const (
	DefaultMaxRounds      = 1
	DefaultMaxAttempts    = 3
	DefaultDeadline       = 300 * time.Second
	DefaultMaxTransitions = 64
)

// Config defines the guardrails of a single workflow run. Nil fields fall
// back to the package defaults.
type Config struct {
	MaxRounds      *int
	MaxAttempts    *int
	Deadline       *time.Duration
	MaxTransitions *int
}

// Validate ensures the budget values are sane before use.
func (c Config) Validate() error {
	if c.MaxRounds != nil && *c.MaxRounds < 1 {
		return fmt.Errorf("max_rounds must be at least 1")
	}
	if c.MaxAttempts != nil && *c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if c.Deadline != nil && *c.Deadline <= 0 {
		return fmt.Errorf("deadline must be positive")
	}
	if c.MaxTransitions != nil && *c.MaxTransitions < 1 {
		return fmt.Errorf("max_transitions must be at least 1")
	}
	return nil
}

// Clone produces a deep copy of the config.
func (c Config) Clone() Config {
	var clone Config
	if c.MaxRounds != nil {
		v := *c.MaxRounds
		clone.MaxRounds = &v
	}
	if c.MaxAttempts != nil {
		v := *c.MaxAttempts
		clone.MaxAttempts = &v
	}
	if c.Deadline != nil {
		v := *c.Deadline
		clone.Deadline = &v
	}
	if c.MaxTransitions != nil {
		v := *c.MaxTransitions
		clone.MaxTransitions = &v
	}
	return clone
}

// Merge overlays non-nil values from override onto base.
func Merge(base Config, override Config) Config {
	result := base.Clone()
	if override.MaxRounds != nil {
		v := *override.MaxRounds
		result.MaxRounds = &v
	}
	if override.MaxAttempts != nil {
		v := *override.MaxAttempts
		result.MaxAttempts = &v
	}
	if override.Deadline != nil {
		v := *override.Deadline
		result.Deadline = &v
	}
	if override.MaxTransitions != nil {
		v := *override.MaxTransitions
		result.MaxTransitions = &v
	}
	return result
}

func (c Config) Rounds() int {
	if c.MaxRounds == nil {
		return DefaultMaxRounds
	}
	return *c.MaxRounds
}

func (c Config) Attempts() int {
	if c.MaxAttempts == nil {
		return DefaultMaxAttempts
	}
	return *c.MaxAttempts
}

func (c Config) Timeout() time.Duration {
	if c.Deadline == nil {
		return DefaultDeadline
	}
	return *c.Deadline
}

func (c Config) Transitions() int {
	if c.MaxTransitions == nil {
		return DefaultMaxTransitions
	}
	return *c.MaxTransitions
}

// Int returns a pointer to v, for building overrides.
func Int(v int) *int { return &v }

// Duration returns a pointer to d, for building overrides.
func Duration(d time.Duration) *time.Duration { return &d }
