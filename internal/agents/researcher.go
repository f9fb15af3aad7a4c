package agents

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/medconsensus/internal/helpers"
	"github.com/mohammad-safakhou/medconsensus/internal/telemetry"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
	"github.com/mohammad-safakhou/medconsensus/tools/web_fetch"
	"github.com/mohammad-safakhou/medconsensus/tools/web_search"
	"github.com/mohammad-safakhou/medconsensus/tools/web_search/models"
)

const (
	defaultMaxAttempts = 3
	defaultNumResults  = 5
	shortSnippet       = 200
	contextChars       = 100
	maxParallelFetches = 4
)

// Researcher gathers findings for the topic from web search.
type Researcher struct {
	Searcher    web_search.Searcher
	Fetcher     web_fetch.WebFetcher
	Realtime    bool
	NumResults  int
	MinSources  int
	FetchTopN   int
	MaxAttempts int
	Logger      *zap.Logger
	Telemetry   *telemetry.Telemetry
}

type searchPlan struct {
	query   string
	trusted bool
}

func (r *Researcher) Execute(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	attempt := s.ResearchAttempt + 1
	research := func(plan searchPlan) func() workflow.Delta {
		return func() workflow.Delta {
			r.logger().Info("researching",
				zap.Int("attempt", attempt),
				zap.String("query", plan.query),
				zap.Bool("trusted", plan.trusted))
			findings := r.findings(ctx, s, plan)
			return workflow.Delta{
				ResearchFindings: &findings,
				ResearchAttempt:  workflow.Ptr(attempt),
				Next:             workflow.Ptr(workflow.StepVerifySources),
			}
		}
	}
	regular := searchPlan{query: ResearchQuery(s.Topic, s.Symptoms, s.MedicalHistory, s.TestResults), trusted: true}
	fallback := searchPlan{query: FallbackQuery(s.Topic), trusted: true}
	return workflow.Bounded(r.maxAttempts(), attempt, research(regular), research(fallback)), nil
}

func (r *Researcher) findings(ctx context.Context, s workflow.State, plan searchPlan) string {
	logger := r.logger()
	if !r.Realtime || r.Searcher == nil {
		logger.Debug("using simulated research findings")
		return SimulatedFindings(s.Topic, s.Symptoms)
	}

	results, err := r.Searcher.Search(ctx, plan.query, r.numResults(), plan.trusted)
	if err != nil {
		r.Telemetry.CollaboratorFailure("web_search")
		logger.Warn("search failed, using simulated findings", zap.Error(err))
		return SimulatedFindings(s.Topic, s.Symptoms)
	}
	if r.MinSources > 0 && len(results) < r.MinSources {
		results = r.widen(ctx, s.Topic, plan.trusted, results)
	}
	if len(results) == 0 {
		logger.Info("no search results, using simulated findings")
		return SimulatedFindings(s.Topic, s.Symptoms)
	}
	r.enrich(ctx, results)
	return FormatFindings(s.Topic, results)
}

// widen runs alternative phrasings of the topic until MinSources distinct
// links are collected or the phrasings run out.
func (r *Researcher) widen(ctx context.Context, topic string, trusted bool, results []models.Result) []models.Result {
	seen := make(map[string]struct{}, len(results))
	out := make([]models.Result, 0, r.MinSources)
	add := func(batch []models.Result) {
		for _, res := range batch {
			key := helpers.LinkKey(res.Link)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, res)
		}
	}
	add(results)
	for _, q := range AlternativeQueries(topic) {
		if len(out) >= r.MinSources {
			break
		}
		batch, err := r.Searcher.Search(ctx, q, r.numResults(), trusted)
		if err != nil {
			r.Telemetry.CollaboratorFailure("web_search")
			r.logger().Debug("alternative query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		add(batch)
	}
	return out
}

// enrich replaces short snippets of the first FetchTopN results with the
// readable text of the linked page. Fetch failures leave the snippet as is.
func (r *Researcher) enrich(ctx context.Context, results []models.Result) {
	if r.Fetcher == nil || r.FetchTopN <= 0 {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for i := range results {
		if i >= r.FetchTopN {
			break
		}
		if utf8.RuneCountInString(results[i].Snippet) >= shortSnippet || results[i].Link == "" {
			continue
		}
		i := i
		g.Go(func() error {
			page, err := r.Fetcher.Exec(gctx, results[i].Link)
			if err != nil {
				r.Telemetry.CollaboratorFailure("web_fetch")
				r.logger().Debug("page fetch failed", zap.String("url", results[i].Link), zap.Error(err))
				return nil
			}
			if text := helpers.PlainText(page.Text); text != "" {
				results[i].Snippet = text
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Researcher) numResults() int {
	if r.NumResults > 0 {
		return r.NumResults
	}
	return defaultNumResults
}

func (r *Researcher) maxAttempts() int {
	if r.MaxAttempts > 0 {
		return r.MaxAttempts
	}
	return defaultMaxAttempts
}

func (r *Researcher) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// ResearchQuery builds the search query for the regular attempts.
func ResearchQuery(topic, symptoms, history, tests string) string {
	var query string
	if provided(symptoms, workflow.DefaultSymptoms) {
		query = fmt.Sprintf("%s %s causes diagnosis treatment medical information", topic, symptoms)
	} else {
		query = fmt.Sprintf("%s medical information diagnosis treatment", topic)
	}
	if provided(history, workflow.DefaultMedicalHistory) {
		query += " with " + helpers.Truncate(history, contextChars)
	}
	if provided(tests, workflow.DefaultTestResults) {
		query += " test results " + helpers.Truncate(tests, contextChars)
	}
	return query
}

// FallbackQuery is used once the regular attempts are exhausted.
func FallbackQuery(topic string) string {
	return fmt.Sprintf("scientific medical information %s treatment diagnosis evidence based medicine", topic)
}

// AlternativeQueries are tried in order when too few sources were found.
func AlternativeQueries(topic string) []string {
	return []string{
		topic + " treatment guidelines",
		topic + " diagnosis criteria",
		topic + " clinical research",
		topic + " latest studies",
	}
}

func provided(value, placeholder string) bool {
	value = strings.TrimSpace(value)
	return value != "" && !strings.EqualFold(value, placeholder)
}

// FormatFindings renders search results as numbered findings with their
// source links.
func FormatFindings(topic string, results []models.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research findings for %s:\n\n", topic)
	for i, res := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, orDefault(res.Title, "No title"))
		fmt.Fprintf(&b, "   Summary: %s\n", orDefault(res.Snippet, "No snippet"))
		fmt.Fprintf(&b, "   Source: %s\n\n", orDefault(res.Link, "No link"))
	}
	return b.String()
}

// SimulatedFindings is the offline stand-in for search results.
func SimulatedFindings(topic, symptoms string) string {
	return fmt.Sprintf(`Research findings for %s:

1. Definition and Overview:
   %s is a medical condition that affects thousands of patients each year.
   Common symptoms include %s.

2. Potential Causes:
   - Genetic factors
   - Environmental triggers
   - Lifestyle factors

3. Diagnostic Approach:
   - Clinical evaluation
   - Laboratory tests
   - Imaging studies

4. Treatment Options:
   - Medication management
   - Lifestyle modifications
   - Surgical interventions when necessary

5. Prognosis:
   The prognosis varies depending on the severity and individual patient factors.

Source: Medical Encyclopedia (2023)
`, topic, capitalize(topic), symptoms)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
