package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mohammad-safakhou/medconsensus/config"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
	"github.com/mohammad-safakhou/medconsensus/tools/web_search/models"
)

func TestPipelineTerminatesWithReportFields(t *testing.T) {
	credible := []models.Result{{
		Title:   "Non-small cell lung cancer treatment",
		Snippet: "Stage-based treatment options for NSCLC.",
		Link:    "https://www.cancer.gov/types/lung/hp/non-small-cell-lung-treatment-pdq",
	}}

	cases := []struct {
		name     string
		topic    string
		searcher *fakeSearcher
		reentry  workflow.StepID
		rounds   int
		lung     bool
	}{
		{
			name:     "search and llm down",
			topic:    "migraine",
			searcher: &fakeSearcher{err: errors.New("search unavailable")},
			reentry:  workflow.StepBuildConsensus,
			rounds:   3,
		},
		{
			name:     "many rounds",
			topic:    "migraine",
			searcher: &fakeSearcher{err: errors.New("search unavailable")},
			reentry:  workflow.StepBuildConsensus,
			rounds:   12,
		},
		{
			name:     "lung re-enters at consensus",
			topic:    "lung cancer",
			searcher: &fakeSearcher{fallback: credible},
			reentry:  workflow.StepBuildConsensus,
			rounds:   2,
			lung:     true,
		},
		{
			name:     "lung re-enters at verification",
			topic:    "lung cancer",
			searcher: &fakeSearcher{fallback: credible},
			reentry:  workflow.StepVerifySources,
			rounds:   12,
			lung:     true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Workflow.MaxAttempts = 3
			cfg.Workflow.LungBranch = true
			cfg.Sources.WebSearch.Realtime = true

			steps, err := Steps(cfg, Deps{
				Completer: &fakeCompleter{err: errors.New("llm unavailable")},
				Searcher:  tc.searcher,
				Logger:    zaptest.NewLogger(t),
			})
			require.NoError(t, err)
			o, err := workflow.New(steps,
				workflow.WithBudget(cfg.Workflow.Budget()),
				workflow.WithLungReentry(tc.reentry))
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			final, err := o.Run(ctx, workflow.NewState(tc.topic, "cough", "", "", tc.rounds))
			require.NoError(t, err)

			assert.False(t, final.TimedOut)
			assert.Equal(t, workflow.StepEnd, final.Next)
			assert.Equal(t, tc.rounds, final.CurrentRound)
			assert.NotEmpty(t, final.ResearchFindings)
			assert.NotEmpty(t, final.VerifiedSources)
			assert.NotEmpty(t, final.Diagnoses)
			assert.NotEmpty(t, final.Treatments)
			assert.NotEmpty(t, final.Consensus)
			assert.LessOrEqual(t, final.ResearchAttempt, tc.rounds+cfg.Workflow.MaxAttempts)
			if tc.lung {
				require.NotNil(t, final.LungAnalysis)
				assert.NotEmpty(t, final.LungAnalysis.Staging.Stage)
			} else {
				assert.Nil(t, final.LungAnalysis)
				assert.Equal(t, PlaceholderSources, final.VerifiedSources)
			}
		})
	}
}
