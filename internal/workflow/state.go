// Package workflow runs the diagnosis pipeline: a fixed graph of steps
// threading an immutable State until a step selects StepEnd.
package workflow

import (
	"fmt"

	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
)

// StepID names a step of the graph.
type StepID string

const (
	StepResearch           StepID = "research"
	StepVerifySources      StepID = "verify_sources"
	StepDiagnose           StepID = "diagnose"
	StepRecommendTreatment StepID = "recommend_treatment"
	StepBuildConsensus     StepID = "build_consensus"
	StepLungCancerAnalysis StepID = "lung_cancer_analysis"
	StepEnd                StepID = "end"
)

var stepIDs = []StepID{
	StepResearch,
	StepVerifySources,
	StepDiagnose,
	StepRecommendTreatment,
	StepBuildConsensus,
	StepLungCancerAnalysis,
	StepEnd,
}

// Valid reports whether id is one of the known step identifiers.
func (id StepID) Valid() bool {
	for _, s := range stepIDs {
		if s == id {
			return true
		}
	}
	return false
}

func (id StepID) String() string { return string(id) }

// ParseStepID converts a configuration value into a StepID.
func ParseStepID(s string) (StepID, error) {
	id := StepID(s)
	if !id.Valid() {
		return "", fmt.Errorf("unknown step %q", s)
	}
	return id, nil
}

// Defaults used when the caller leaves the patient fields empty.
const (
	DefaultSymptoms       = "No symptoms provided."
	DefaultMedicalHistory = "No medical history provided."
	DefaultTestResults    = "No test results provided."
)

// Placeholders written into report fields a timed out run never reached.
const (
	PlaceholderFindings   = "Research did not complete before the run deadline."
	PlaceholderDiagnoses  = "Diagnosis did not complete before the run deadline."
	PlaceholderTreatments = "Treatment recommendations did not complete before the run deadline."
	PlaceholderConsensus  = "Consensus could not be reached before the run deadline."
)

// State is the value threaded through every step. Steps never modify it;
// they return a Delta that Apply folds into a new State.
type State struct {
	RunID string `json:"run_id"`

	Topic          string `json:"topic"`
	Symptoms       string `json:"symptoms"`
	MedicalHistory string `json:"medical_history"`
	TestResults    string `json:"test_results"`

	ResearchFindings  string   `json:"research_findings"`
	VerifiedSources   []string `json:"verified_sources"`
	SourceCredibility float64  `json:"source_credibility"`
	Diagnoses         string   `json:"diagnoses"`
	Treatments        string   `json:"treatments"`
	Consensus         string   `json:"consensus"`

	ResearchAttempt     int `json:"research_attempt"`
	VerificationAttempt int `json:"verification_attempt"`
	CurrentRound        int `json:"current_round"`
	MaxRounds           int `json:"max_rounds"`

	LungAnalysis *oncology.Analysis `json:"lung_analysis,omitempty"`

	Next     StepID `json:"next"`
	TimedOut bool   `json:"timed_out"`
}

// NewState builds the initial state of a run. Empty patient fields get the
// "not provided" defaults and maxRounds is raised to at least one.
func NewState(topic, symptoms, history, tests string, maxRounds int) State {
	if symptoms == "" {
		symptoms = DefaultSymptoms
	}
	if history == "" {
		history = DefaultMedicalHistory
	}
	if tests == "" {
		tests = DefaultTestResults
	}
	if maxRounds < 1 {
		maxRounds = 1
	}
	return State{
		Topic:          topic,
		Symptoms:       symptoms,
		MedicalHistory: history,
		TestResults:    tests,
		CurrentRound:   1,
		MaxRounds:      maxRounds,
		Next:           StepResearch,
	}
}

// Delta carries the fields a step wants to change. Nil fields are left
// untouched.
type Delta struct {
	ResearchFindings    *string
	VerifiedSources     *[]string
	SourceCredibility   *float64
	Diagnoses           *string
	Treatments          *string
	Consensus           *string
	ResearchAttempt     *int
	VerificationAttempt *int
	CurrentRound        *int
	LungAnalysis        *oncology.Analysis
	Next                *StepID
}

// Ptr returns a pointer to v, for building Deltas.
func Ptr[T any](v T) *T { return &v }

// Apply returns a copy of s with every set field of d written over it.
func (s State) Apply(d Delta) State {
	out := s
	out.VerifiedSources = append([]string(nil), s.VerifiedSources...)
	if d.ResearchFindings != nil {
		out.ResearchFindings = *d.ResearchFindings
	}
	if d.VerifiedSources != nil {
		out.VerifiedSources = append([]string(nil), (*d.VerifiedSources)...)
	}
	if d.SourceCredibility != nil {
		out.SourceCredibility = *d.SourceCredibility
	}
	if d.Diagnoses != nil {
		out.Diagnoses = *d.Diagnoses
	}
	if d.Treatments != nil {
		out.Treatments = *d.Treatments
	}
	if d.Consensus != nil {
		out.Consensus = *d.Consensus
	}
	if d.ResearchAttempt != nil {
		out.ResearchAttempt = *d.ResearchAttempt
	}
	if d.VerificationAttempt != nil {
		out.VerificationAttempt = *d.VerificationAttempt
	}
	if d.CurrentRound != nil {
		out.CurrentRound = *d.CurrentRound
	}
	if d.LungAnalysis != nil {
		analysis := *d.LungAnalysis
		out.LungAnalysis = &analysis
	}
	if d.Next != nil {
		out.Next = *d.Next
	}
	return out
}

// fillPlaceholders writes placeholder text into every empty report field.
func (s State) fillPlaceholders() State {
	if s.ResearchFindings == "" {
		s.ResearchFindings = PlaceholderFindings
	}
	if s.Diagnoses == "" {
		s.Diagnoses = PlaceholderDiagnoses
	}
	if s.Treatments == "" {
		s.Treatments = PlaceholderTreatments
	}
	if s.Consensus == "" {
		s.Consensus = PlaceholderConsensus
	}
	return s
}
