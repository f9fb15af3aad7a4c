package budget

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cfg := Config{MaxRounds: Int(0)}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}

	cfg = Config{Deadline: Duration(-time.Second)}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected deadline validation error")
	}

	if err := (Config{}).Validate(); err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	if cfg.Rounds() != 1 || cfg.Attempts() != 3 || cfg.Transitions() != 64 {
		t.Fatalf("unexpected defaults: %d %d %d", cfg.Rounds(), cfg.Attempts(), cfg.Transitions())
	}
	if cfg.Timeout() != 300*time.Second {
		t.Fatalf("unexpected default deadline %s", cfg.Timeout())
	}
}

func TestMergeClone(t *testing.T) {
	base := Config{MaxRounds: Int(1), Deadline: Duration(time.Minute)}
	override := Config{MaxRounds: Int(3)}
	merged := Merge(base, override)
	if merged.Rounds() != 3 {
		t.Fatalf("expected rounds override, got %d", merged.Rounds())
	}
	if merged.Timeout() != time.Minute {
		t.Fatalf("expected deadline to persist")
	}
	// ensure clone
	*merged.Deadline = time.Hour
	if *base.Deadline != time.Minute {
		t.Fatalf("deadline should be isolated from base")
	}
}

func TestMonitorTransitions(t *testing.T) {
	mon := NewMonitor(Config{MaxTransitions: Int(2)})
	if err := mon.Transition(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mon.Transition(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := mon.Transition()
	var exceeded ErrExceeded
	if !errors.As(err, &exceeded) || exceeded.Kind != "transitions" {
		t.Fatalf("expected transitions breach, got %v", err)
	}
	if n, _ := mon.Usage(); n != 3 {
		t.Fatalf("expected 3 transitions recorded, got %d", n)
	}
}

func TestMonitorCheckTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	current := start
	mon := newMonitor(Config{Deadline: Duration(10 * time.Second)}, func() time.Time { return current })
	if err := mon.CheckTime(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mon.Deadline().Equal(start.Add(10 * time.Second)) {
		t.Fatalf("unexpected deadline %s", mon.Deadline())
	}
	current = start.Add(11 * time.Second)
	if err := mon.CheckTime(); err == nil {
		t.Fatalf("expected time budget breach")
	}
}
