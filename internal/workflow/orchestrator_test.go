package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mohammad-safakhou/medconsensus/internal/budget"
	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
	"github.com/mohammad-safakhou/medconsensus/internal/telemetry"
)

func goTo(id StepID, d Delta) Step {
	return StepFunc(func(ctx context.Context, s State) (Delta, error) {
		d.Next = Ptr(id)
		return d, nil
	})
}

func consensusStep() Step {
	return StepFunc(func(ctx context.Context, s State) (Delta, error) {
		d := Delta{Consensus: Ptr("agreed")}
		if s.CurrentRound < s.MaxRounds {
			d.CurrentRound = Ptr(s.CurrentRound + 1)
			d.Next = Ptr(StepResearch)
		} else {
			d.Next = Ptr(StepEnd)
		}
		return d, nil
	})
}

// linearSteps returns a complete graph whose steps record their order.
func linearSteps(trace *[]StepID) map[StepID]Step {
	record := func(id StepID, next StepID, d Delta) Step {
		return StepFunc(func(ctx context.Context, s State) (Delta, error) {
			*trace = append(*trace, id)
			d.Next = Ptr(next)
			return d, nil
		})
	}
	consensus := consensusStep()
	return map[StepID]Step{
		StepResearch: StepFunc(func(ctx context.Context, s State) (Delta, error) {
			*trace = append(*trace, StepResearch)
			return Delta{ResearchFindings: Ptr("findings"), ResearchAttempt: Ptr(s.ResearchAttempt + 1), Next: Ptr(StepVerifySources)}, nil
		}),
		StepVerifySources:      record(StepVerifySources, StepDiagnose, Delta{VerifiedSources: &[]string{"https://www.cancer.gov"}}),
		StepDiagnose:           record(StepDiagnose, StepRecommendTreatment, Delta{Diagnoses: Ptr("dx")}),
		StepRecommendTreatment: record(StepRecommendTreatment, StepBuildConsensus, Delta{Treatments: Ptr("tx")}),
		StepBuildConsensus: StepFunc(func(ctx context.Context, s State) (Delta, error) {
			*trace = append(*trace, StepBuildConsensus)
			return consensus.Execute(ctx, s)
		}),
	}
}

func TestNewRejectsBadGraphs(t *testing.T) {
	var trace []StepID

	steps := linearSteps(&trace)
	steps["summarize"] = goTo(StepEnd, Delta{})
	_, err := New(steps)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, StepID("summarize"), cfgErr.Step)

	steps = linearSteps(&trace)
	delete(steps, StepDiagnose)
	_, err = New(steps)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, StepDiagnose, cfgErr.Step)

	_, err = New(linearSteps(&trace), WithLungReentry(StepDiagnose))
	require.ErrorAs(t, err, &cfgErr)

	_, err = New(linearSteps(&trace), WithBudget(budget.Config{MaxTransitions: budget.Int(0)}))
	require.ErrorAs(t, err, &cfgErr)
}

func TestRunFollowsGraph(t *testing.T) {
	var trace []StepID
	o, err := New(linearSteps(&trace), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.False(t, o.HasLungBranch())

	final, err := o.Run(context.Background(), NewState("migraine", "headache", "", "", 1))
	require.NoError(t, err)

	assert.Equal(t, []StepID{StepResearch, StepVerifySources, StepDiagnose, StepRecommendTreatment, StepBuildConsensus}, trace)
	assert.Equal(t, StepEnd, final.Next)
	assert.False(t, final.TimedOut)
	assert.NotEmpty(t, final.RunID)
	assert.Equal(t, "agreed", final.Consensus)
	assert.Equal(t, 1, final.ResearchAttempt)
}

func TestRunMultipleRounds(t *testing.T) {
	var trace []StepID
	o, err := New(linearSteps(&trace))
	require.NoError(t, err)

	final, err := o.Run(context.Background(), NewState("migraine", "", "", "", 2))
	require.NoError(t, err)

	assert.Len(t, trace, 10)
	assert.Equal(t, 2, final.CurrentRound)
	assert.Equal(t, 2, final.ResearchAttempt)
	assert.LessOrEqual(t, final.CurrentRound, final.MaxRounds)
}

func TestRunLungBranchReentry(t *testing.T) {
	for _, reentry := range []StepID{StepBuildConsensus, StepVerifySources} {
		t.Run(reentry.String(), func(t *testing.T) {
			var trace []StepID
			steps := linearSteps(&trace)
			lungVisits := 0
			steps[StepVerifySources] = StepFunc(func(ctx context.Context, s State) (Delta, error) {
				trace = append(trace, StepVerifySources)
				if s.LungAnalysis == nil {
					return Delta{Next: Ptr(StepLungCancerAnalysis)}, nil
				}
				return Delta{Next: Ptr(StepDiagnose)}, nil
			})
			steps[StepLungCancerAnalysis] = StepFunc(func(ctx context.Context, s State) (Delta, error) {
				trace = append(trace, StepLungCancerAnalysis)
				lungVisits++
				return Delta{LungAnalysis: &oncology.Analysis{}}, nil
			})

			o, err := New(steps, WithLungReentry(reentry))
			require.NoError(t, err)
			require.True(t, o.HasLungBranch())

			final, err := o.Run(context.Background(), NewState("lung cancer", "", "", "", 1))
			require.NoError(t, err)
			require.NotNil(t, final.LungAnalysis)
			assert.Equal(t, 1, lungVisits)
			assert.Equal(t, StepLungCancerAnalysis, trace[2])
			assert.Equal(t, reentry, trace[3])
			assert.Equal(t, StepEnd, final.Next)
		})
	}
}

func TestRunUnregisteredNext(t *testing.T) {
	var trace []StepID
	steps := linearSteps(&trace)
	steps[StepVerifySources] = goTo(StepLungCancerAnalysis, Delta{})
	o, err := New(steps)
	require.NoError(t, err)

	_, err = o.Run(context.Background(), NewState("lung cancer", "", "", "", 1))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, StepLungCancerAnalysis, cfgErr.Step)
}

func TestRunMissingNext(t *testing.T) {
	var trace []StepID
	steps := linearSteps(&trace)
	steps[StepDiagnose] = StepFunc(func(ctx context.Context, s State) (Delta, error) {
		return Delta{Diagnoses: Ptr("dx")}, nil
	})
	o, err := New(steps)
	require.NoError(t, err)

	_, err = o.Run(context.Background(), NewState("topic", "", "", "", 1))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, StepDiagnose, cfgErr.Step)
}

func TestRunTransitionCeiling(t *testing.T) {
	var trace []StepID
	steps := linearSteps(&trace)
	steps[StepBuildConsensus] = StepFunc(func(ctx context.Context, s State) (Delta, error) {
		trace = append(trace, StepBuildConsensus)
		return Delta{Next: Ptr(StepResearch)}, nil
	})
	o, err := New(steps, WithBudget(budget.Config{MaxTransitions: budget.Int(20)}))
	require.NoError(t, err)

	_, err = o.Run(context.Background(), NewState("topic", "", "", "", 1))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	var exceeded budget.ErrExceeded
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, budget.KindTransitions, exceeded.Kind)
	assert.Len(t, trace, 20)
}

func TestRunManyRoundsFinish(t *testing.T) {
	var trace []StepID
	o, err := New(linearSteps(&trace), WithBudget(budget.Config{MaxTransitions: budget.Int(12)}))
	require.NoError(t, err)

	final, err := o.Run(context.Background(), NewState("migraine", "headache", "", "", 12))
	require.NoError(t, err)
	assert.Len(t, trace, 60)
	assert.Equal(t, 12, final.CurrentRound)
	assert.Equal(t, StepEnd, final.Next)
}

func TestTransitionCeiling(t *testing.T) {
	assert.Equal(t, 64, transitionCeiling(budget.Config{}))
	assert.Equal(t, 68, transitionCeiling(budget.Config{MaxRounds: budget.Int(12)}))
	assert.Equal(t, 5*20+2*5+2, transitionCeiling(budget.Config{MaxRounds: budget.Int(20), MaxAttempts: budget.Int(5)}))
}

func TestRunDeadlineReturnsPartialState(t *testing.T) {
	var trace []StepID
	steps := linearSteps(&trace)
	steps[StepDiagnose] = StepFunc(func(ctx context.Context, s State) (Delta, error) {
		<-ctx.Done()
		return Delta{}, ctx.Err()
	})
	o, err := New(steps, WithBudget(budget.Config{Deadline: budget.Duration(50 * time.Millisecond)}))
	require.NoError(t, err)

	started := time.Now()
	final, err := o.Run(context.Background(), NewState("topic", "", "", "", 1))
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)

	assert.True(t, final.TimedOut)
	assert.Equal(t, "findings", final.ResearchFindings)
	assert.Equal(t, PlaceholderDiagnoses, final.Diagnoses)
	assert.Equal(t, PlaceholderTreatments, final.Treatments)
	assert.Equal(t, PlaceholderConsensus, final.Consensus)
}

func TestRunDeadlineAtStepBoundary(t *testing.T) {
	var trace []StepID
	steps := linearSteps(&trace)
	steps[StepVerifySources] = StepFunc(func(ctx context.Context, s State) (Delta, error) {
		time.Sleep(60 * time.Millisecond)
		return Delta{VerifiedSources: &[]string{"late"}, Next: Ptr(StepDiagnose)}, nil
	})
	o, err := New(steps, WithBudget(budget.Config{Deadline: budget.Duration(30 * time.Millisecond)}))
	require.NoError(t, err)

	final, err := o.Run(context.Background(), NewState("topic", "", "", "", 1))
	require.NoError(t, err)
	assert.True(t, final.TimedOut)
	assert.Equal(t, []string{"late"}, final.VerifiedSources)
	assert.NotContains(t, trace, StepDiagnose)
	for _, field := range []string{final.ResearchFindings, final.Diagnoses, final.Treatments, final.Consensus} {
		assert.NotEmpty(t, field)
	}
}

func TestRunCallerCancellation(t *testing.T) {
	var trace []StepID
	o, err := New(linearSteps(&trace))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.Run(ctx, NewState("topic", "", "", "", 1))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, trace)
}

func TestRunStepError(t *testing.T) {
	var trace []StepID
	steps := linearSteps(&trace)
	boom := errors.New("boom")
	steps[StepRecommendTreatment] = StepFunc(func(ctx context.Context, s State) (Delta, error) {
		return Delta{}, boom
	})
	o, err := New(steps)
	require.NoError(t, err)

	_, err = o.Run(context.Background(), NewState("topic", "", "", "", 1))
	assert.ErrorIs(t, err, boom)
}

func TestRunRecordsTelemetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	tel, err := telemetry.New(reg)
	require.NoError(t, err)

	var trace []StepID
	o, err := New(linearSteps(&trace), WithTelemetry(tel))
	require.NoError(t, err)
	_, err = o.Run(context.Background(), NewState("topic", "", "", "", 1))
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "medconsensus_workflow_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = testutil.GatherAndCount(reg, "medconsensus_step_executions_total")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
