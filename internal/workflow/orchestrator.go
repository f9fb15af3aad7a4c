package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/internal/budget"
	"github.com/mohammad-safakhou/medconsensus/internal/telemetry"
)

var requiredSteps = []StepID{
	StepResearch,
	StepVerifySources,
	StepDiagnose,
	StepRecommendTreatment,
	StepBuildConsensus,
}

// Orchestrator executes the step graph for one run at a time. It holds no
// per-run state and is safe for concurrent use.
type Orchestrator struct {
	steps     map[StepID]Step
	reentry   StepID
	budget    budget.Config
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
	now       func() time.Time
}

type Option func(*Orchestrator)

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(o *Orchestrator) { o.telemetry = t }
}

// WithBudget sets the deadline and transition ceiling of each run.
func WithBudget(cfg budget.Config) Option {
	return func(o *Orchestrator) { o.budget = cfg.Clone() }
}

// WithLungReentry selects where the lung cancer step hands control back:
// StepBuildConsensus or StepVerifySources.
func WithLungReentry(id StepID) Option {
	return func(o *Orchestrator) { o.reentry = id }
}

// New validates the step table and returns an orchestrator for it.
func New(steps map[StepID]Step, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		steps:   make(map[StepID]Step, len(steps)),
		reentry: StepBuildConsensus,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("orchestrator")

	for id, step := range steps {
		if !id.Valid() || id == StepEnd {
			return nil, &ConfigurationError{Step: id, Reason: "unknown step"}
		}
		if step == nil {
			return nil, &ConfigurationError{Step: id, Reason: "nil step"}
		}
		o.steps[id] = step
	}
	for _, id := range requiredSteps {
		if _, ok := o.steps[id]; !ok {
			return nil, &ConfigurationError{Step: id, Reason: "required step not registered"}
		}
	}
	if o.reentry != StepBuildConsensus && o.reentry != StepVerifySources {
		return nil, &ConfigurationError{Step: o.reentry, Reason: "lung cancer re-entry must be build_consensus or verify_sources"}
	}
	if err := o.budget.Validate(); err != nil {
		return nil, &ConfigurationError{Reason: "invalid budget", Err: err}
	}
	return o, nil
}

// HasLungBranch reports whether the lung cancer specialty step is
// registered.
func (o *Orchestrator) HasLungBranch() bool {
	_, ok := o.steps[StepLungCancerAnalysis]
	return ok
}

// Run executes the graph from StepResearch until a step selects StepEnd.
// When the run deadline passes, the partial state is returned with TimedOut
// set and placeholders in the empty report fields; that is not an error.
func (o *Orchestrator) Run(ctx context.Context, initial State) (State, error) {
	state := initial
	if state.RunID == "" {
		state.RunID = uuid.NewString()
	}
	if state.MaxRounds < 1 {
		state.MaxRounds = o.budget.Rounds()
	}
	if state.CurrentRound < 1 {
		state.CurrentRound = 1
	}
	state.Next = StepResearch

	run := budget.Merge(o.budget, budget.Config{MaxRounds: budget.Int(state.MaxRounds)})
	run.MaxTransitions = budget.Int(transitionCeiling(run))
	monitor := budget.NewMonitor(run)
	runCtx, cancel := context.WithDeadline(ctx, monitor.Deadline())
	defer cancel()

	logger := o.logger.With(zap.String("run_id", state.RunID))
	runCtx, span := o.telemetry.StartRun(runCtx, state.RunID, state.Topic)
	started := o.now()
	logger.Info("workflow started",
		zap.String("topic", state.Topic),
		zap.Int("max_rounds", state.MaxRounds),
		zap.Int("max_transitions", run.Transitions()))

	finish := func(s State, outcome string, err error) (State, error) {
		elapsed := o.now().Sub(started)
		o.telemetry.EndRun(span, outcome, elapsed, err)
		transitions, _ := monitor.Usage()
		fields := []zap.Field{
			zap.String("outcome", outcome),
			zap.Int("transitions", transitions),
			zap.Duration("elapsed", elapsed),
		}
		if err != nil {
			logger.Error("workflow failed", append(fields, zap.Error(err))...)
		} else {
			logger.Info("workflow finished", fields...)
		}
		return s, err
	}
	timedOut := func(s State) (State, error) {
		s.TimedOut = true
		return finish(s.fillPlaceholders(), telemetry.OutcomeTimedOut, nil)
	}

	next := StepResearch
	for next != StepEnd {
		if err := ctx.Err(); errors.Is(err, context.Canceled) {
			return finish(state, telemetry.OutcomeFailed, err)
		}
		if monitor.CheckTime() != nil || runCtx.Err() != nil {
			logger.Warn("run deadline reached", zap.String("pending_step", next.String()))
			return timedOut(state)
		}
		if err := monitor.Transition(); err != nil {
			return finish(state, telemetry.OutcomeFailed, &ConfigurationError{Step: next, Reason: "transition ceiling reached", Err: err})
		}
		step, ok := o.steps[next]
		if !ok {
			return finish(state, telemetry.OutcomeFailed, &ConfigurationError{Step: next, Reason: "no step registered"})
		}

		transitions, _ := monitor.Usage()
		stepCtx, stepSpan := o.telemetry.StartStep(runCtx, next.String(), transitions)
		stepStart := o.now()
		delta, err := step.Execute(stepCtx, state)
		o.telemetry.EndStep(stepSpan, next.String(), o.now().Sub(stepStart), err)
		if err != nil {
			if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
				logger.Warn("step interrupted by run deadline", zap.String("step", next.String()), zap.Error(err))
				return timedOut(state)
			}
			return finish(state, telemetry.OutcomeFailed, fmt.Errorf("step %s: %w", next, err))
		}

		current := next
		state = state.Apply(delta)
		switch {
		case delta.Next != nil:
			next = *delta.Next
		case current == StepLungCancerAnalysis:
			next = o.reentry
		default:
			return finish(state, telemetry.OutcomeFailed, &ConfigurationError{Step: current, Reason: "step did not select a next step"})
		}
		if !next.Valid() {
			return finish(state, telemetry.OutcomeFailed, &ConfigurationError{Step: next, Reason: fmt.Sprintf("unknown next step selected by %s", current)})
		}
		state.Next = next
		logger.Debug("step completed",
			zap.String("step", current.String()),
			zap.String("next", next.String()),
			zap.Duration("elapsed", o.now().Sub(stepStart)))
	}
	return finish(state, telemetry.OutcomeCompleted, nil)
}

// transitionCeiling raises the configured step limit to what a run of
// cfg.Rounds() rounds can legitimately take: the main path every round, a
// research and verify pass per verification retry, and the lung analysis
// followed by a second verification.
func transitionCeiling(cfg budget.Config) int {
	need := len(requiredSteps)*cfg.Rounds() + 2*cfg.Attempts() + 2
	return max(cfg.Transitions(), need)
}

// Deadline returns the configured run deadline.
func (o *Orchestrator) Deadline() time.Duration { return o.budget.Timeout() }
