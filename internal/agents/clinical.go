package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/internal/telemetry"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
	"github.com/mohammad-safakhou/medconsensus/provider"
)

// NoDiagnoses is stored as the treatments when there is nothing to treat.
const NoDiagnoses = "No diagnoses provided to base treatments on"

var errNoCompleter = errors.New("no text completion provider configured")

// Diagnostician asks the completion provider for the likely diagnoses.
type Diagnostician struct {
	Completer provider.TextCompleter
	Logger    *zap.Logger
	Telemetry *telemetry.Telemetry
}

func (d *Diagnostician) Execute(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	vars := map[string]string{
		"topic":           s.Topic,
		"symptoms":        s.Symptoms,
		"medical_history": s.MedicalHistory,
		"test_results":    s.TestResults,
		"findings":        s.ResearchFindings,
		"specialty":       specialtyContext(s),
	}
	text, err := complete(ctx, d.Completer, diagnosisPrompt, vars)
	if err != nil {
		d.Telemetry.CollaboratorFailure("llm")
		loggerOrNop(d.Logger).Error("diagnosis failed", zap.Error(err))
		text = fmt.Sprintf("Unable to generate diagnosis: %v", err)
	}
	return workflow.Delta{
		Diagnoses: &text,
		Next:      workflow.Ptr(workflow.StepRecommendTreatment),
	}, nil
}

// TreatmentAdvisor recommends treatments for the diagnoses of the run.
type TreatmentAdvisor struct {
	Completer provider.TextCompleter
	Logger    *zap.Logger
	Telemetry *telemetry.Telemetry
}

func (t *TreatmentAdvisor) Execute(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	next := workflow.Ptr(workflow.StepBuildConsensus)
	if strings.TrimSpace(s.Diagnoses) == "" {
		return workflow.Delta{Treatments: workflow.Ptr(NoDiagnoses), Next: next}, nil
	}
	vars := map[string]string{
		"diagnoses":       s.Diagnoses,
		"symptoms":        s.Symptoms,
		"medical_history": s.MedicalHistory,
		"findings":        s.ResearchFindings,
		"specialty":       specialtyContext(s),
	}
	text, err := complete(ctx, t.Completer, treatmentPrompt, vars)
	if err != nil {
		t.Telemetry.CollaboratorFailure("llm")
		loggerOrNop(t.Logger).Error("treatment recommendation failed", zap.Error(err))
		text = fmt.Sprintf("Unable to generate treatment recommendations: %v", err)
	}
	return workflow.Delta{Treatments: &text, Next: next}, nil
}

// ConsensusBuilder merges the diagnoses and treatments into one assessment
// and decides whether another round is due.
type ConsensusBuilder struct {
	Completer provider.TextCompleter
	Logger    *zap.Logger
	Telemetry *telemetry.Telemetry
}

func (c *ConsensusBuilder) Execute(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	vars := map[string]string{
		"topic":       s.Topic,
		"diagnoses":   s.Diagnoses,
		"treatments":  s.Treatments,
		"findings":    s.ResearchFindings,
		"sources":     strings.Join(s.VerifiedSources, "\n"),
		"credibility": fmt.Sprintf("%.1f", s.SourceCredibility),
		"specialty":   specialtyContext(s),
	}
	text, err := complete(ctx, c.Completer, consensusPrompt, vars)
	if err != nil {
		c.Telemetry.CollaboratorFailure("llm")
		loggerOrNop(c.Logger).Error("consensus failed", zap.Error(err))
		text = fmt.Sprintf("Unable to build consensus: %v", err)
		return workflow.Delta{Consensus: &text, Next: workflow.Ptr(workflow.StepEnd)}, nil
	}

	if s.CurrentRound < s.MaxRounds {
		loggerOrNop(c.Logger).Info("starting another consensus round",
			zap.Int("round", s.CurrentRound+1),
			zap.Int("max_rounds", s.MaxRounds))
		return workflow.Delta{
			Consensus:    &text,
			CurrentRound: workflow.Ptr(s.CurrentRound + 1),
			Next:         workflow.Ptr(workflow.StepResearch),
		}, nil
	}
	return workflow.Delta{Consensus: &text, Next: workflow.Ptr(workflow.StepEnd)}, nil
}

func complete(ctx context.Context, c provider.TextCompleter, p provider.Prompt, vars map[string]string) (string, error) {
	if c == nil {
		return "", errNoCompleter
	}
	text, err := c.Complete(ctx, p, vars)
	if err != nil {
		return "", err
	}
	return StripThinking(text), nil
}

// specialtyContext renders the lung cancer analysis for prompts, or nothing
// when the branch did not run.
func specialtyContext(s workflow.State) string {
	if s.LungAnalysis == nil {
		return ""
	}
	return "\nLung Cancer Analysis:\n" + s.LungAnalysis.Summary() + "\n"
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
