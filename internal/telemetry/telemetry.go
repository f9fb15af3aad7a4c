// Package telemetry owns the process metrics and tracing hooks. A nil
// *Telemetry is valid and records nothing.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	namespace  = "medconsensus"
	tracerName = "medconsensus/internal/workflow"
)

// Run outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeTimedOut  = "timed_out"
	OutcomeFailed    = "failed"
)

type Telemetry struct {
	runs                 *prometheus.CounterVec
	runDuration          prometheus.Histogram
	stepExecutions       *prometheus.CounterVec
	stepDuration         *prometheus.HistogramVec
	collaboratorFailures *prometheus.CounterVec
	searchCache          *prometheus.CounterVec
	tracer               trace.Tracer
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Telemetry, error) {
	t := &Telemetry{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_total",
			Help:      "Workflow runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of workflow runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		stepExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_executions_total",
			Help:      "Workflow step executions.",
		}, []string{"step"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of workflow steps.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		collaboratorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_failures_total",
			Help:      "Failures of search, completion, fetch and translation collaborators.",
		}, []string{"collaborator"}),
		searchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_cache_total",
			Help:      "Search cache lookups by result.",
		}, []string{"result"}),
		tracer: otel.Tracer(tracerName),
	}
	for _, c := range []prometheus.Collector{t.runs, t.runDuration, t.stepExecutions, t.stepDuration, t.collaboratorFailures, t.searchCache} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return t, nil
}

// StartRun opens the root span of a workflow run.
func (t *Telemetry) StartRun(ctx context.Context, runID, topic string) (context.Context, trace.Span) {
	return t.startSpan(ctx, "workflow.run",
		attribute.String("run.id", runID),
		attribute.Int("topic.length", len(topic)))
}

// EndRun records the run outcome and closes its span.
func (t *Telemetry) EndRun(span trace.Span, outcome string, elapsed time.Duration, err error) {
	if span != nil {
		span.SetAttributes(attribute.String("run.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	if t == nil {
		return
	}
	t.runs.WithLabelValues(outcome).Inc()
	t.runDuration.Observe(elapsed.Seconds())
}

// StartStep opens a span for one step execution.
func (t *Telemetry) StartStep(ctx context.Context, step string, attempt int) (context.Context, trace.Span) {
	return t.startSpan(ctx, "workflow.step."+step,
		attribute.String("step", step),
		attribute.Int("transition", attempt))
}

// EndStep records a completed step execution and closes its span.
func (t *Telemetry) EndStep(span trace.Span, step string, elapsed time.Duration, err error) {
	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	if t == nil {
		return
	}
	t.stepExecutions.WithLabelValues(step).Inc()
	t.stepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
}

// CollaboratorFailure counts a degraded call to an external collaborator.
func (t *Telemetry) CollaboratorFailure(collaborator string) {
	if t == nil {
		return
	}
	t.collaboratorFailures.WithLabelValues(collaborator).Inc()
}

// ObserveSearchCache counts a search cache hit or miss.
func (t *Telemetry) ObserveSearchCache(hit bool) {
	if t == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	t.searchCache.WithLabelValues(result).Inc()
}

func (t *Telemetry) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	if t != nil {
		tracer = t.tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
