package workflow

import "context"

// Step is one node of the graph. A Step returns the fields it changes plus
// the next step to run. Collaborator failures are handled inside the step;
// a returned error aborts the run.
type Step interface {
	Execute(ctx context.Context, s State) (Delta, error)
}

// StepFunc adapts a function to Step.
type StepFunc func(ctx context.Context, s State) (Delta, error)

func (f StepFunc) Execute(ctx context.Context, s State) (Delta, error) { return f(ctx, s) }

// Bounded picks between retrying and giving up: retry runs while attempt is
// within limit, exhausted runs once it is exceeded.
func Bounded(limit, attempt int, retry, exhausted func() Delta) Delta {
	if attempt <= limit {
		return retry()
	}
	return exhausted()
}
