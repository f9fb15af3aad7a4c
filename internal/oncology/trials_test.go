package oncology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog(t *testing.T) []Trial {
	t.Helper()
	trials, err := DefaultCatalog()
	require.NoError(t, err)
	return trials
}

func ids(trials []Trial) []string {
	out := make([]string, 0, len(trials))
	for _, tr := range trials {
		out = append(out, tr.ID)
	}
	return out
}

func TestDefaultCatalog(t *testing.T) {
	trials := catalog(t)

	require.Len(t, trials, 12)
	for _, tr := range trials {
		assert.Equal(t, "https://clinicaltrials.gov/ct2/show/"+tr.ID, tr.URL)
		assert.NotEmpty(t, tr.Conditions, tr.ID)
	}
	durvalumab, ok := TrialByID(trials, "nct04209843")
	require.True(t, ok)
	assert.Equal(t, []string{"PD-L1 ≥ 1%"}, durvalumab.Eligibility.Markers)

	_, ok = TrialByID(trials, "NCT00000000")
	assert.False(t, ok)
}

func TestFindTrialsAdvancedEGFR(t *testing.T) {
	got := FindTrials(catalog(t), TrialCriteria{
		CancerType:        TypeNSCLC,
		Stage:             "IVA",
		Markers:           []string{"EGFR Mutation"},
		PerformanceStatus: Int(1),
	})

	assert.Equal(t, []string{"NCT04583995", "NCT04268550"}, ids(got))
}

func TestFindTrialsBrainMetastases(t *testing.T) {
	criteria := TrialCriteria{CancerType: TypeNSCLC, Stage: "IIIA"}
	assert.Equal(t, []string{"NCT03829332"}, ids(FindTrials(catalog(t), criteria)))

	criteria.BrainMetastases = Bool(true)
	assert.Empty(t, FindTrials(catalog(t), criteria))
}

func TestFindTrialsSmallCell(t *testing.T) {
	criteria := TrialCriteria{CancerType: TypeSCLC, Stage: StageExtensive}
	assert.Equal(t, []string{"NCT03976375", "NCT03706625", "NCT04640272"}, ids(FindTrials(catalog(t), criteria)))

	criteria.PerformanceStatus = Int(2)
	assert.Equal(t, []string{"NCT03976375"}, ids(FindTrials(catalog(t), criteria)))

	criteria.BrainMetastases = Bool(true)
	assert.Empty(t, FindTrials(catalog(t), criteria))

	assert.Empty(t, FindTrials(catalog(t), TrialCriteria{CancerType: TypeSCLC, Stage: StageLimited}))
}

func TestFindTrialsEarlyStage(t *testing.T) {
	got := FindTrials(catalog(t), TrialCriteria{CancerType: TypeNSCLC, Stage: "IA2"})

	assert.Equal(t, []string{"NCT04085315", "NCT04619797"}, ids(got))
}

func TestLoadCatalogRejectsBadEntries(t *testing.T) {
	_, err := LoadCatalog([]byte("- id: A\n- id: A\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = LoadCatalog([]byte("- title: nameless\n"))
	assert.ErrorContains(t, err, "missing id")

	_, err = LoadCatalog([]byte("not: [a list"))
	assert.Error(t, err)
}

func TestPhaseScore(t *testing.T) {
	assert.Equal(t, 3.0, phaseScore("3"))
	assert.Equal(t, 2.0, phaseScore("2"))
	assert.Equal(t, 1.5, phaseScore("1/2"))
	assert.Equal(t, 1.0, phaseScore("1"))
	assert.Equal(t, 0.0, phaseScore("N/A"))
}

func TestValidateCatalog(t *testing.T) {
	require.NoError(t, ValidateCatalog(trialsYAML))

	err := ValidateCatalog([]byte("- id: NCT00000001\n  title: Unquoted phase\n  phase: 3\n  eligibility: {}\n"))
	assert.ErrorContains(t, err, "trial catalog")

	err = ValidateCatalog([]byte("- id: NCT00000001\n  title: Bad ps\n  phase: \"2\"\n  eligibility:\n    performance_status: \"0-5\"\n"))
	assert.Error(t, err)

	err = ValidateCatalog([]byte("- id: trial-1\n  title: Bad id\n  phase: \"2\"\n  eligibility: {}\n"))
	assert.Error(t, err)
}
