package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
)

// LungCancerAnalyst runs the rule-based oncology analysis. It leaves Next
// unset so the orchestrator forwards to the configured re-entry step.
type LungCancerAnalyst struct {
	Catalog []oncology.Trial
	Logger  *zap.Logger
}

func (l *LungCancerAnalyst) Execute(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	if err := ctx.Err(); err != nil {
		return workflow.Delta{}, err
	}
	analysis := oncology.Analyze(oncology.Input{
		Topic:          s.Topic,
		Symptoms:       stripDefault(s.Symptoms, workflow.DefaultSymptoms),
		MedicalHistory: stripDefault(s.MedicalHistory, workflow.DefaultMedicalHistory),
		TestResults:    stripDefault(s.TestResults, workflow.DefaultTestResults),
	}, l.Catalog)

	loggerOrNop(l.Logger).Info("lung cancer analysis complete",
		zap.String("type", analysis.Profile.MainType),
		zap.String("stage", analysis.Staging.Stage),
		zap.Int("trials", len(analysis.Trials)))

	delta := workflow.Delta{LungAnalysis: &analysis}
	// Seed the report fields so a run re-entering at consensus still has
	// them; the LLM steps overwrite them when they run.
	if strings.TrimSpace(s.Diagnoses) == "" {
		delta.Diagnoses = workflow.Ptr(ruleBasedDiagnosis(analysis))
	}
	if strings.TrimSpace(s.Treatments) == "" {
		delta.Treatments = workflow.Ptr(ruleBasedTreatment(analysis))
	}
	return delta, nil
}

func stripDefault(value, placeholder string) string {
	if strings.EqualFold(strings.TrimSpace(value), placeholder) {
		return ""
	}
	return value
}

func ruleBasedDiagnosis(a oncology.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", a.Profile.MainType)
	fmt.Fprintf(&b, "**Subtype:** %s\n\n", a.Profile.Subtype)
	fmt.Fprintf(&b, "**Stage:** %s (TNM: %s)\n\n", a.Staging.Stage, a.Staging.TNM)
	if len(a.Profile.GeneticMarkers) > 0 {
		fmt.Fprintf(&b, "**Genetic markers:** %s\n\n", strings.Join(a.Profile.GeneticMarkers, ", "))
	}
	fmt.Fprintf(&b, "**Classification confidence:** %.2f", a.Profile.Confidence)
	return b.String()
}

func ruleBasedTreatment(a oncology.Analysis) string {
	var b strings.Builder
	b.WriteString("## Primary Interventions\n\n")
	for _, t := range a.Treatment.PrimaryTreatment {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	for _, t := range a.Treatment.TargetedTherapy {
		fmt.Fprintf(&b, "- Targeted therapy for %s: %s\n", t.Marker, strings.Join(t.FirstLine, ", "))
	}
	if len(a.Treatment.ClinicalConsiderations) > 0 {
		b.WriteString("\n## Clinical Considerations\n\n")
		for _, c := range a.Treatment.ClinicalConsiderations {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
