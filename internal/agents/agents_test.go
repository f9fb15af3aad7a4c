package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mohammad-safakhou/medconsensus/config"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
)

func TestStripThinking(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"think tags": {
			in:   "<think>\nweighing options\n</think>\n\nAnswer",
			want: "Answer",
		},
		"bracket tags": {
			in:   "[thinking]a[/thinking]One[thought]b[/thought] two[reasoning]c\nd[/reasoning]",
			want: "One two",
		},
		"blank lines collapse": {
			in:   "First\n\n\n\n\nSecond",
			want: "First\n\nSecond",
		},
		"untouched": {
			in:   "  plain text  ",
			want: "plain text",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripThinking(tc.in))
		})
	}
}

func TestStepsRegistersLungBranchOnlyWhenEnabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.Workflow.MaxAttempts = 3

	steps, err := Steps(cfg, Deps{Completer: &fakeCompleter{}, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	assert.Len(t, steps, 5)
	assert.NotContains(t, steps, workflow.StepLungCancerAnalysis)

	cfg.Workflow.LungBranch = true
	steps, err = Steps(cfg, Deps{Completer: &fakeCompleter{}})
	require.NoError(t, err)
	require.Contains(t, steps, workflow.StepLungCancerAnalysis)

	_, err = workflow.New(steps)
	require.NoError(t, err)
}

func TestStepsShareWorkflowAttempts(t *testing.T) {
	cfg := &config.Config{}
	cfg.Workflow.MaxAttempts = 2

	steps, err := Steps(cfg, Deps{Completer: &fakeCompleter{}})
	require.NoError(t, err)
	assert.Equal(t, 2, steps[workflow.StepResearch].(*Researcher).MaxAttempts)
	assert.Equal(t, 2, steps[workflow.StepVerifySources].(*Verifier).MaxAttempts)

	cfg.Workflow.MaxAttempts = 0
	steps, err = Steps(cfg, Deps{Completer: &fakeCompleter{}})
	require.NoError(t, err)
	assert.Equal(t, 3, steps[workflow.StepVerifySources].(*Verifier).MaxAttempts)
}
