package oncology

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed trials.yaml
var trialsYAML []byte

const trialURLPrefix = "https://clinicaltrials.gov/ct2/show/"

type Eligibility struct {
	Stage             []string `yaml:"stage" json:"stage"`
	Markers           []string `yaml:"markers" json:"markers"`
	PriorTreatment    string   `yaml:"prior_treatment" json:"prior_treatment"`
	PerformanceStatus string   `yaml:"performance_status" json:"performance_status"`
	BrainMetastases   string   `yaml:"brain_metastases" json:"brain_metastases"`
}

type Trial struct {
	ID            string      `yaml:"id" json:"id"`
	Title         string      `yaml:"title" json:"title"`
	Phase         string      `yaml:"phase" json:"phase"`
	Conditions    []string    `yaml:"conditions" json:"conditions"`
	Interventions []string    `yaml:"interventions" json:"interventions"`
	Eligibility   Eligibility `yaml:"eligibility" json:"eligibility"`
	Locations     []string    `yaml:"locations" json:"locations"`
	Status        string      `yaml:"status" json:"status"`
	URL           string      `yaml:"url" json:"url"`
}

// TrialCriteria narrows the catalog. Nil pointers skip the corresponding
// check.
type TrialCriteria struct {
	CancerType        string   `json:"cancer_type"`
	Stage             string   `json:"cancer_stage"`
	Markers           []string `json:"genetic_markers"`
	PriorTreatment    string   `json:"prior_treatment,omitempty"`
	PerformanceStatus *int     `json:"performance_status,omitempty"`
	BrainMetastases   *bool    `json:"brain_metastases,omitempty"`
}

// LoadCatalog parses a YAML trial list and fills in missing registry URLs.
func LoadCatalog(data []byte) ([]Trial, error) {
	var trials []Trial
	if err := yaml.Unmarshal(data, &trials); err != nil {
		return nil, fmt.Errorf("parse trial catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(trials))
	for i := range trials {
		t := &trials[i]
		if t.ID == "" {
			return nil, fmt.Errorf("trial %d: missing id", i)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("trial %s: duplicate id", t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.URL == "" {
			t.URL = trialURLPrefix + t.ID
		}
	}
	return trials, nil
}

var defaultCatalog = sync.OnceValues(func() ([]Trial, error) {
	trials, err := LoadCatalog(trialsYAML)
	if err != nil {
		return nil, err
	}
	if err := ValidateCatalog(trialsYAML); err != nil {
		return nil, err
	}
	return trials, nil
})

// DefaultCatalog returns the embedded trial catalog. Callers must not
// modify the returned slice.
func DefaultCatalog() ([]Trial, error) {
	return defaultCatalog()
}

// TrialByID looks a trial up by its registry id.
func TrialByID(catalog []Trial, id string) (Trial, bool) {
	id = strings.TrimSpace(id)
	for _, t := range catalog {
		if strings.EqualFold(t.ID, id) {
			return t, true
		}
	}
	return Trial{}, false
}

// FindTrials returns the catalog entries whose type, stage, marker,
// performance status and brain metastasis rules admit the criteria, ordered
// by phase (highest first) and then recruiting status.
func FindTrials(catalog []Trial, c TrialCriteria) []Trial {
	sclc := IsSCLC(c.CancerType)
	stage := normalizeStage(c.Stage)

	var out []Trial
	for _, t := range catalog {
		if !typeMatches(t, sclc) {
			continue
		}
		if sclc && !sclcStageMatches(t, stage) {
			continue
		}
		if !sclc && !nsclcStageMatches(t.Eligibility.Stage, stage) {
			continue
		}
		if !markersMatch(t.Eligibility.Markers, c.Markers) {
			continue
		}
		if c.PerformanceStatus != nil {
			if limit, ok := maxPerformanceStatus(t.Eligibility.PerformanceStatus); ok && *c.PerformanceStatus > limit {
				continue
			}
		}
		if c.BrainMetastases != nil && *c.BrainMetastases && strings.Contains(t.Eligibility.BrainMetastases, "Not allowed") {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := phaseScore(out[i].Phase), phaseScore(out[j].Phase)
		if pi != pj {
			return pi > pj
		}
		return out[i].Status == "Recruiting" && out[j].Status != "Recruiting"
	})
	return out
}

func typeMatches(t Trial, sclc bool) bool {
	for _, cond := range t.Conditions {
		nonSmall := strings.Contains(cond, "Non-Small Cell")
		if sclc && !nonSmall && strings.Contains(cond, "Small Cell") {
			return true
		}
		if !sclc && nonSmall {
			return true
		}
	}
	return false
}

func sclcStageMatches(t Trial, stage string) bool {
	var want string
	switch {
	case strings.Contains(stage, "LIMITED"):
		want = "Limited Stage"
	case strings.Contains(stage, "EXTENSIVE"):
		want = "Extensive Stage"
	default:
		return false
	}
	for _, cond := range t.Conditions {
		if strings.Contains(cond, want) {
			return true
		}
	}
	for _, s := range t.Eligibility.Stage {
		if strings.Contains(s, want) {
			return true
		}
	}
	return false
}

var romanMajorRe = regexp.MustCompile(`^(IV|I{1,3})`)

func majorStage(stage string) string {
	return romanMajorRe.FindString(stage)
}

func nsclcStageMatches(trialStages []string, stage string) bool {
	major := majorStage(stage)
	for _, ts := range trialStages {
		upper := strings.ToUpper(ts)
		if upper == stage {
			return true
		}
		if major != "" && majorStage(upper) == major {
			return true
		}
		if strings.HasPrefix(stage, "IV") && (ts == "Advanced" || ts == "Metastatic" || ts == "IV") {
			return true
		}
		if strings.HasPrefix(stage, "III") && (ts == "Advanced" || ts == "III") {
			return true
		}
	}
	return false
}

func markersMatch(trialMarkers, patientMarkers []string) bool {
	if len(trialMarkers) == 0 {
		return true
	}
	for _, tm := range trialMarkers {
		if tm == "Any actionable mutation" && len(patientMarkers) > 0 {
			return true
		}
		lower := strings.ToLower(tm)
		for _, pm := range patientMarkers {
			if strings.Contains(strings.ToLower(pm), lower) {
				return true
			}
		}
	}
	return false
}

func maxPerformanceStatus(rangeText string) (int, bool) {
	_, hi, ok := strings.Cut(rangeText, "-")
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, false
	}
	return v, true
}

func phaseScore(phase string) float64 {
	switch {
	case strings.Contains(phase, "3"):
		return 3
	case strings.Contains(phase, "1/2"):
		return 1.5
	case strings.Contains(phase, "2"):
		return 2
	case strings.Contains(phase, "1"):
		return 1
	default:
		return 0
	}
}
