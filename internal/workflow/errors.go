package workflow

import "fmt"

// ConfigurationError reports a graph that cannot be run: unknown or missing
// steps, an invalid re-entry point, a dangling Next or a run that exceeded
// its transition ceiling.
type ConfigurationError struct {
	Step   StepID
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "workflow configuration"
	if e.Step != "" {
		msg += fmt.Sprintf(" (step %s)", e.Step)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
