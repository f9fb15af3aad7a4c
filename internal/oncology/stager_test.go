package oncology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageFromTNMCodes(t *testing.T) {
	result := Stage(TypeNSCLC, "T2a N1 M0")

	assert.Equal(t, "IIB", result.Stage)
	assert.Equal(t, "T2a N1 M0", result.TNM)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.Equal(t, stageDescriptions["IIB"], result.Description)
}

func TestStageTable(t *testing.T) {
	cases := []struct {
		text       string
		stage      string
		confidence float64
	}{
		{"pT1b N0 M0 after lobectomy", "IA2", 0.8},
		{"T1a N0 M0", "IA1", 0.8},
		{"T4 N1 M0", "IIIA", 0.8},
		{"T3 N3 M0", "IIIC", 0.8},
		{"T3 N0 M1c", "IVB", 0.9},
		{"T2b N2 M1a", "IVA", 0.9},
		{"T1c N0 M1", "IV", 0.8},
		{"findings consistent with stage IIIA disease", "IIIA", 0.9},
		{"Stage IV adenocarcinoma", "IVA", 0.9},
		{"persistent cough", StageUnknown, 0.3},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			result := Stage(TypeNSCLC, tc.text)
			assert.Equal(t, tc.stage, result.Stage)
			assert.InDelta(t, tc.confidence, result.Confidence, 1e-9)
		})
	}
}

func TestStageFromDescriptiveText(t *testing.T) {
	result := Stage(TypeNSCLC, "Tumor measures 4.5 cm, no lymph node involvement, no distant metastasis")

	assert.Equal(t, "T2b", result.T)
	assert.Equal(t, "N0", result.N)
	assert.Equal(t, "M0", result.M)
	assert.Equal(t, "IIA", result.Stage)
}

func TestStageMetastaticSites(t *testing.T) {
	assert.Equal(t, "M1c", Stage(TypeNSCLC, "multiple metastatic lesions in liver and bone").M)
	assert.Equal(t, "M1a", Stage(TypeNSCLC, "new pleural effusion").M)
	assert.Equal(t, "M1", Stage(TypeNSCLC, "metastasis to the brain").M)
}

func TestStageInvasion(t *testing.T) {
	assert.Equal(t, "T3", Stage(TypeNSCLC, "mass invades the chest wall").T)
	assert.Equal(t, "T4", Stage(TypeNSCLC, "tumor invading the carina").T)
}

func TestStageSmallCell(t *testing.T) {
	limited := Stage(TypeSCLC, "limited stage disease")
	assert.Equal(t, StageLimited, limited.Stage)
	assert.Equal(t, "Not applicable for SCLC", limited.TNM)
	assert.InDelta(t, 0.6, limited.Confidence, 1e-9)
	assert.Empty(t, limited.T)

	extensive := Stage(TypeSCLC, "extensive-stage with liver metastases")
	assert.Equal(t, StageExtensive, extensive.Stage)
	assert.InDelta(t, 0.8, extensive.Confidence, 1e-9)

	unknown := Stage(TypeSCLC, "awaiting imaging")
	assert.Equal(t, StageUnknownSCLC, unknown.Stage)
	assert.InDelta(t, 0.3, unknown.Confidence, 1e-9)
}

func TestStageNSCLCNotRoutedToSmallCell(t *testing.T) {
	assert.False(t, IsSCLC(TypeNSCLC))
	assert.False(t, IsSCLC(TypeLikelyNSCLC))
	assert.True(t, IsSCLC(TypeSCLC))
	assert.Equal(t, "IA1", Stage(TypeNSCLC, "T1a N0 M0").Stage)
}
