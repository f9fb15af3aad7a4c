// Package agents implements the steps of the diagnosis graph: research,
// source verification, diagnosis, treatment, consensus and the lung cancer
// specialty analysis.
package agents

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/config"
	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
	"github.com/mohammad-safakhou/medconsensus/internal/telemetry"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
	"github.com/mohammad-safakhou/medconsensus/provider"
	"github.com/mohammad-safakhou/medconsensus/tools/web_fetch"
	"github.com/mohammad-safakhou/medconsensus/tools/web_search"
)

// Deps are the collaborators shared by the steps. Searcher and Fetcher may
// be nil: research then falls back to simulated findings and skips page
// enrichment.
type Deps struct {
	Completer provider.TextCompleter
	Searcher  web_search.Searcher
	Fetcher   web_fetch.WebFetcher
	Catalog   []oncology.Trial
	Logger    *zap.Logger
	Telemetry *telemetry.Telemetry
}

// Steps builds the step table for workflow.New. The lung cancer step is
// only registered when the branch is enabled.
func Steps(cfg *config.Config, deps Deps) (map[workflow.StepID]workflow.Step, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := cfg.Workflow.Budget().Attempts()

	steps := map[workflow.StepID]workflow.Step{
		workflow.StepResearch: &Researcher{
			Searcher:    deps.Searcher,
			Fetcher:     deps.Fetcher,
			Realtime:    cfg.Sources.WebSearch.Realtime,
			NumResults:  cfg.Agents.Research.NumResults,
			MinSources:  cfg.Agents.Research.MinSources,
			FetchTopN:   fetchTopN(cfg.Sources.WebFetch),
			MaxAttempts: attempts,
			Logger:      logger.Named("researcher"),
			Telemetry:   deps.Telemetry,
		},
		workflow.StepVerifySources: &Verifier{
			Scorer:      NewScorer(cfg.Credibility),
			Threshold:   cfg.Credibility.Threshold,
			Placeholder: cfg.Credibility.Placeholder,
			MaxAttempts: attempts,
			LungBranch:  cfg.Workflow.LungBranch,
			Logger:      logger.Named("verifier"),
		},
		workflow.StepDiagnose: &Diagnostician{
			Completer: deps.Completer,
			Logger:    logger.Named("diagnostician"),
			Telemetry: deps.Telemetry,
		},
		workflow.StepRecommendTreatment: &TreatmentAdvisor{
			Completer: deps.Completer,
			Logger:    logger.Named("treatment_advisor"),
			Telemetry: deps.Telemetry,
		},
		workflow.StepBuildConsensus: &ConsensusBuilder{
			Completer: deps.Completer,
			Logger:    logger.Named("consensus"),
			Telemetry: deps.Telemetry,
		},
	}
	if cfg.Workflow.LungBranch {
		catalog := deps.Catalog
		if catalog == nil {
			var err error
			if catalog, err = oncology.DefaultCatalog(); err != nil {
				return nil, fmt.Errorf("load trial catalog: %w", err)
			}
		}
		steps[workflow.StepLungCancerAnalysis] = &LungCancerAnalyst{
			Catalog: catalog,
			Logger:  logger.Named("lung_cancer"),
		}
	}
	return steps, nil
}

func fetchTopN(cfg config.WebFetchConfig) int {
	if !cfg.Enabled {
		return 0
	}
	return cfg.TopN
}

var (
	thinkingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)<think>.*?</think>`),
		regexp.MustCompile(`(?s)\[thinking\].*?\[/thinking\]`),
		regexp.MustCompile(`(?s)\[thought\].*?\[/thought\]`),
		regexp.MustCompile(`(?s)\[reasoning\].*?\[/reasoning\]`),
	}
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// StripThinking removes model reasoning markup from a completion and
// collapses the blank lines it leaves behind.
func StripThinking(content string) string {
	for _, re := range thinkingPatterns {
		content = re.ReplaceAllString(content, "")
	}
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
