package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
)

func TestDiagnostician(t *testing.T) {
	llm := &fakeCompleter{reply: "<think>hmm</think>\n## Migraine\n\n\n\n**Likelihood:** High"}
	d := &Diagnostician{Completer: llm}
	s := workflow.NewState("migraine", "headache", "", "", 1)
	s.ResearchFindings = "findings"

	delta, err := d.Execute(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "## Migraine\n\n**Likelihood:** High", *delta.Diagnoses)
	assert.Equal(t, workflow.StepRecommendTreatment, *delta.Next)
	assert.Equal(t, "diagnosis", llm.prompt.Name)
	assert.Equal(t, "headache", llm.vars["symptoms"])
	assert.Equal(t, workflow.DefaultMedicalHistory, llm.vars["medical_history"])
	assert.Equal(t, "findings", llm.vars["findings"])
	assert.Empty(t, llm.vars["specialty"])
}

func TestDiagnosticianFailure(t *testing.T) {
	d := &Diagnostician{Completer: &fakeCompleter{err: errors.New("rate limited")}}
	delta, err := d.Execute(context.Background(), workflow.NewState("migraine", "", "", "", 1))
	require.NoError(t, err)
	assert.Equal(t, "Unable to generate diagnosis: rate limited", *delta.Diagnoses)
	assert.Equal(t, workflow.StepRecommendTreatment, *delta.Next)

	d = &Diagnostician{}
	delta, err = d.Execute(context.Background(), workflow.NewState("migraine", "", "", "", 1))
	require.NoError(t, err)
	assert.Contains(t, *delta.Diagnoses, "Unable to generate diagnosis:")
}

func TestTreatmentAdvisor(t *testing.T) {
	llm := &fakeCompleter{reply: "## Primary Interventions"}
	ta := &TreatmentAdvisor{Completer: llm}

	s := workflow.NewState("migraine", "", "", "", 1)
	delta, err := ta.Execute(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, NoDiagnoses, *delta.Treatments)
	assert.Equal(t, workflow.StepBuildConsensus, *delta.Next)
	assert.Empty(t, llm.prompt.Name)

	s.Diagnoses = "## Migraine"
	s.LungAnalysis = &oncology.Analysis{}
	delta, err = ta.Execute(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "## Primary Interventions", *delta.Treatments)
	assert.Equal(t, "treatment", llm.prompt.Name)
	assert.Equal(t, "## Migraine", llm.vars["diagnoses"])
	assert.Contains(t, llm.vars["specialty"], "Lung Cancer Analysis:")

	ta.Completer = &fakeCompleter{err: errors.New("timeout")}
	delta, err = ta.Execute(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "Unable to generate treatment recommendations: timeout", *delta.Treatments)
}

func TestConsensusRounds(t *testing.T) {
	llm := &fakeCompleter{reply: "REASONING\n...\nCONSENSUS DIAGNOSIS\n...\nPATIENT ACTION PLAN\n..."}
	c := &ConsensusBuilder{Completer: llm}
	s := workflow.NewState("migraine", "", "", "", 2)
	s.VerifiedSources = []string{"https://www.mayoclinic.org", "https://www.nih.gov"}
	s.SourceCredibility = 0.75

	delta, err := c.Execute(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 2, *delta.CurrentRound)
	assert.Equal(t, workflow.StepResearch, *delta.Next)
	assert.Equal(t, "0.8", llm.vars["credibility"])
	assert.Equal(t, "https://www.mayoclinic.org\nhttps://www.nih.gov", llm.vars["sources"])

	s = s.Apply(delta)
	delta, err = c.Execute(context.Background(), s)
	require.NoError(t, err)
	assert.Nil(t, delta.CurrentRound)
	assert.Equal(t, workflow.StepEnd, *delta.Next)
	assert.Contains(t, *delta.Consensus, "PATIENT ACTION PLAN")
}

func TestConsensusFailureEndsRun(t *testing.T) {
	c := &ConsensusBuilder{Completer: &fakeCompleter{err: errors.New("down")}}
	delta, err := c.Execute(context.Background(), workflow.NewState("migraine", "", "", "", 3))
	require.NoError(t, err)
	assert.Equal(t, "Unable to build consensus: down", *delta.Consensus)
	assert.Equal(t, workflow.StepEnd, *delta.Next)
}
