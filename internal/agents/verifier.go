package agents

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/config"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
)

// Credibility scores on a 0-10 scale.
const (
	ScoreBoosted     = 10.0
	ScoreCancer      = 9.0
	ScoreMedical     = 7.5
	ScorePublishing  = 7.0
	ScoreInstitution = 6.5
	ScoreDefault     = 5.0

	DefaultThreshold   = 6.0
	DefaultPlaceholder = 0.3
)

// PlaceholderSources stand in for verified sources once verification gives up.
var PlaceholderSources = []string{
	"General medical knowledge (unverified)",
	"Simulated research findings",
}

var (
	boostedDomains = []string{"cancer.gov", "nci.nih.gov"}

	cancerDomains = []string{
		"cancer.gov", "nci.nih.gov", "asco.org", "ascopubs.org", "nccn.org",
		"mskcc.org", "mdanderson.org", "cancer.org", "esmo.org", "aacr.org",
		"iaslc.org", "nejm.org", "jco.org", "cancerresearchuk.org",
		"dana-farber.org", "lungevity.org",
	}

	medicalDomains = []string{
		"mayoclinic.org", "who.int", "nih.gov", "pubmed.gov", "ncbi.nlm.nih.gov",
		"cdc.gov", "medlineplus.gov", "clevelandclinic.org", "hopkinsmedicine.org",
		"health.harvard.edu", "thelancet.com", "jamanetwork.com", "bmj.com",
		"aafp.org", "medscape.com", "webmd.com", "healthline.com",
		"medicalnewstoday.com", "nature.com", "sciencedirect.com",
	}

	publishingTerms  = []string{"journal", "study", "research", "trial", "publication"}
	institutionTerms = []string{"association", "society", "college", "foundation"}
)

// Scorer rates sources by the domain tier they mention, falling back to
// textual hints.
type Scorer struct {
	tiers []tier
}

type tier struct {
	domain string
	score  float64
}

// NewScorer extends the built-in domain tiers with the configured ones.
func NewScorer(cfg config.CredibilityConfig) Scorer {
	cfg = cfg.Normalize()
	var s Scorer
	for _, d := range boostedDomains {
		s.tiers = append(s.tiers, tier{d, ScoreBoosted})
	}
	for _, d := range append(append([]string(nil), cancerDomains...), cfg.ExtraCancerDomains...) {
		s.tiers = append(s.tiers, tier{d, ScoreCancer})
	}
	for _, d := range append(append([]string(nil), medicalDomains...), cfg.ExtraMedicalDomains...) {
		s.tiers = append(s.tiers, tier{d, ScoreMedical})
	}
	return s
}

var defaultScorer = NewScorer(config.CredibilityConfig{})

// ScoreSource rates src with the built-in tiers.
func ScoreSource(src string) float64 { return defaultScorer.Score(src) }

// Score returns the tier score of the longest domain src mentions. Ties
// between equally long domains go to the higher tier.
func (s Scorer) Score(src string) float64 {
	if len(s.tiers) == 0 {
		s = defaultScorer
	}
	lower := strings.ToLower(src)
	best, bestLen := 0.0, 0
	for _, t := range s.tiers {
		if !strings.Contains(lower, t.domain) {
			continue
		}
		if n := len(t.domain); n > bestLen || (n == bestLen && t.score > best) {
			best, bestLen = t.score, n
		}
	}
	switch {
	case bestLen > 0:
		return best
	case containsAnyTerm(lower, publishingTerms):
		return ScorePublishing
	case containsAnyTerm(lower, institutionTerms):
		return ScoreInstitution
	}
	return ScoreDefault
}

func containsAnyTerm(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// ExtractSources collects citations from research findings: the text after
// "Source:" on a line and any http token. The result keeps first-seen order
// without duplicates.
func ExtractSources(findings string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(src string) {
		if src == "" {
			return
		}
		if _, ok := seen[src]; ok {
			return
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	for _, line := range strings.Split(findings, "\n") {
		if strings.Contains(strings.ToLower(line), "source:") {
			if _, after, ok := strings.Cut(line, ":"); ok {
				add(strings.TrimSpace(after))
			}
		}
		for _, word := range strings.Fields(line) {
			if strings.HasPrefix(word, "http") {
				add(strings.Trim(word, ".,()[]{}"))
			}
		}
	}
	return out
}

// Verifier keeps the credible sources of the research findings and decides
// whether research must be repeated.
type Verifier struct {
	Scorer      Scorer
	Threshold   float64
	Placeholder float64
	MaxAttempts int
	LungBranch  bool
	Logger      *zap.Logger
}

func (v *Verifier) Execute(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	attempt := s.VerificationAttempt + 1
	logger := v.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sources := ExtractSources(s.ResearchFindings)
	var kept []string
	var total float64
	for _, src := range sources {
		score := v.Scorer.Score(src)
		if score >= v.threshold() {
			kept = append(kept, src)
			total += score
		}
	}
	logger.Info("sources verified",
		zap.Int("attempt", attempt),
		zap.Int("extracted", len(sources)),
		zap.Int("kept", len(kept)))

	if len(kept) > 0 {
		credibility := total / float64(len(kept)) / 10
		next := workflow.StepDiagnose
		if v.takeLungBranch(s) {
			next = workflow.StepLungCancerAnalysis
		}
		return workflow.Delta{
			VerifiedSources:     &kept,
			SourceCredibility:   &credibility,
			VerificationAttempt: workflow.Ptr(attempt),
			Next:                &next,
		}, nil
	}

	retry := func() workflow.Delta {
		return workflow.Delta{
			VerifiedSources:     &[]string{},
			SourceCredibility:   workflow.Ptr(0.0),
			VerificationAttempt: workflow.Ptr(attempt),
			Next:                workflow.Ptr(workflow.StepResearch),
		}
	}
	exhausted := func() workflow.Delta {
		logger.Warn("verification attempts exhausted, using placeholder sources", zap.Int("attempt", attempt))
		placeholders := append([]string(nil), PlaceholderSources...)
		return workflow.Delta{
			VerifiedSources:     &placeholders,
			SourceCredibility:   workflow.Ptr(v.placeholder()),
			VerificationAttempt: workflow.Ptr(attempt),
			Next:                workflow.Ptr(workflow.StepDiagnose),
		}
	}
	return workflow.Bounded(v.maxAttempts(), attempt, retry, exhausted), nil
}

// takeLungBranch reports whether the specialty analysis should run for s.
// It runs once per run.
func (v *Verifier) takeLungBranch(s workflow.State) bool {
	if !v.LungBranch || s.LungAnalysis != nil {
		return false
	}
	topic := strings.ToLower(s.Topic)
	return strings.Contains(topic, "lung") && strings.Contains(topic, "cancer")
}

func (v *Verifier) threshold() float64 {
	if v.Threshold > 0 {
		return v.Threshold
	}
	return DefaultThreshold
}

func (v *Verifier) placeholder() float64 {
	if v.Placeholder > 0 {
		return v.Placeholder
	}
	return DefaultPlaceholder
}

func (v *Verifier) maxAttempts() int {
	if v.MaxAttempts > 0 {
		return v.MaxAttempts
	}
	return defaultMaxAttempts
}
