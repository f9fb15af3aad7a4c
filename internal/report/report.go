// Package report turns the final workflow state into a report, renders it as
// Markdown and optionally translates it.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
)

// Shown in place of sections the run left empty.
const (
	NoFindings   = "No research findings available."
	NoDiagnoses  = "No diagnoses available."
	NoTreatments = "No treatment recommendations available."
	NoConsensus  = "No consensus available."
)

// Report is the display form of a finished run. Every text section is
// non-empty.
type Report struct {
	RunID          string `json:"run_id"`
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

	Rounds               int  `json:"rounds"`
	MaxRounds            int  `json:"max_rounds"`
	ResearchAttempts     int  `json:"research_attempts"`
	VerificationAttempts int  `json:"verification_attempts"`
	TimedOut             bool `json:"timed_out"`

	LungAnalysis *oncology.Analysis `json:"lung_analysis,omitempty"`
	LungSummary  string             `json:"lung_summary,omitempty"`

	Translation *TranslationInfo `json:"translation_info,omitempty"`
}

// Assemble flattens the final state of a run.
func Assemble(s workflow.State) Report {
	r := Report{
		RunID:                s.RunID,
		Topic:                s.Topic,
		Symptoms:             s.Symptoms,
		MedicalHistory:       s.MedicalHistory,
		TestResults:          s.TestResults,
		ResearchFindings:     orPlaceholder(s.ResearchFindings, NoFindings),
		VerifiedSources:      append([]string{}, s.VerifiedSources...),
		SourceCredibility:    s.SourceCredibility,
		Diagnoses:            orPlaceholder(s.Diagnoses, NoDiagnoses),
		Treatments:           orPlaceholder(s.Treatments, NoTreatments),
		Consensus:            orPlaceholder(s.Consensus, NoConsensus),
		Rounds:               s.CurrentRound,
		MaxRounds:            s.MaxRounds,
		ResearchAttempts:     s.ResearchAttempt,
		VerificationAttempts: s.VerificationAttempt,
		TimedOut:             s.TimedOut,
	}
	if s.LungAnalysis != nil {
		analysis := *s.LungAnalysis
		r.LungAnalysis = &analysis
		r.LungSummary = analysis.Summary()
	}
	return r
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// Markdown renders r as a Markdown document stamped with generated.
func Markdown(r Report, generated time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Medical Diagnosis Report: %s\n\n", r.Topic)
	fmt.Fprintf(&b, "*Generated %s*", generated.Format("2006-01-02 15:04:05"))
	if r.RunID != "" {
		fmt.Fprintf(&b, " · run `%s`", r.RunID)
	}
	b.WriteString("\n\n")
	if r.TimedOut {
		b.WriteString("> **Note:** the workflow reached its deadline before completing; some sections contain placeholder text.\n\n")
	}
	if r.Translation != nil {
		fmt.Fprintf(&b, "> Translated to %s.\n\n", r.Translation.TargetLanguage)
	}

	b.WriteString("## Patient Information\n\n")
	fmt.Fprintf(&b, "- **Symptoms:** %s\n", r.Symptoms)
	fmt.Fprintf(&b, "- **Medical History:** %s\n", r.MedicalHistory)
	fmt.Fprintf(&b, "- **Test Results:** %s\n\n", r.TestResults)

	section(&b, "Research Findings", r.ResearchFindings)

	b.WriteString("## Verified Sources\n\n")
	fmt.Fprintf(&b, "Credibility score: %.1f\n\n", r.SourceCredibility)
	if len(r.VerifiedSources) == 0 {
		b.WriteString("No verified sources.\n\n")
	}
	for _, src := range r.VerifiedSources {
		fmt.Fprintf(&b, "- %s\n", src)
	}
	if len(r.VerifiedSources) > 0 {
		b.WriteString("\n")
	}

	section(&b, "Diagnoses", r.Diagnoses)
	section(&b, "Treatment Recommendations", r.Treatments)
	if r.LungSummary != "" {
		section(&b, "Lung Cancer Analysis", r.LungSummary)
	}
	section(&b, "Consensus", r.Consensus)

	fmt.Fprintf(&b, "---\n\nConsensus rounds: %d of %d\n", r.Rounds, r.MaxRounds)
	return b.String()
}

func section(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "## %s\n\n%s\n\n", title, strings.TrimSpace(body))
}

// FileName is the report file name for a run finished at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("medical_diagnosis_%s.md", t.Format("20060102_150405"))
}

// Save writes the Markdown rendering of r into dir and returns the path.
func Save(dir string, r Report, t time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, FileName(t))
	if err := os.WriteFile(path, []byte(Markdown(r, t)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
