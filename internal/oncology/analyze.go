package oncology

import (
	"fmt"
	"strings"
)

// Input is the free text of one case. Patient holds explicitly supplied
// factors which take precedence over the ones read from the text.
type Input struct {
	Topic          string  `json:"topic"`
	Symptoms       string  `json:"symptoms"`
	MedicalHistory string  `json:"medical_history"`
	TestResults    string  `json:"test_results"`
	Patient        Patient `json:"patient"`
}

// Analysis bundles the five analyzer outputs for one case.
type Analysis struct {
	Profile   ClinicalProfile   `json:"profile"`
	Staging   StagingResult     `json:"staging"`
	Patient   Patient           `json:"patient"`
	Treatment TreatmentPlan     `json:"treatment"`
	Prognosis PrognosisEstimate `json:"prognosis"`
	Criteria  TrialCriteria     `json:"trial_criteria"`
	Trials    []Trial           `json:"trials"`
}

// Analyze runs classification, staging, treatment matching, prognosis and
// trial lookup over one case.
func Analyze(in Input, catalog []Trial) Analysis {
	clinical := strings.Join(nonEmpty(in.Topic, in.Symptoms, in.TestResults), ". ")
	everything := strings.Join(nonEmpty(clinical, in.MedicalHistory), ". ")

	profile := Classify(clinical, in.MedicalHistory)
	staging := Stage(profile.MainType, strings.Join(nonEmpty(in.TestResults, in.Symptoms, in.Topic), ". "))
	patient := ExtractPatient(everything).Merge(in.Patient)

	criteria := TrialCriteria{
		CancerType:        profile.MainType,
		Stage:             staging.Stage,
		Markers:           profile.GeneticMarkers,
		PriorTreatment:    patient.PriorTreatment,
		PerformanceStatus: patient.PerformanceStatus,
		BrainMetastases:   patient.BrainMetastases,
	}
	return Analysis{
		Profile:   profile,
		Staging:   staging,
		Patient:   patient,
		Treatment: RecommendTreatment(profile, staging, patient),
		Prognosis: PredictPrognosis(profile.MainType, staging.Stage, patient, profile.GeneticMarkers),
		Criteria:  criteria,
		Trials:    FindTrials(catalog, criteria),
	}
}

// Summary renders the analysis as plain text for prompts and reports.
func (a Analysis) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cancer type: %s\n", a.Profile.MainType)
	fmt.Fprintf(&b, "Subtype: %s\n", a.Profile.Subtype)
	if len(a.Profile.GeneticMarkers) > 0 {
		fmt.Fprintf(&b, "Genetic markers: %s\n", strings.Join(a.Profile.GeneticMarkers, ", "))
	}
	fmt.Fprintf(&b, "Smoking status: %s\n", a.Profile.SmokingStatus)
	fmt.Fprintf(&b, "Stage: %s (TNM: %s, confidence %.2f)\n", a.Staging.Stage, a.Staging.TNM, a.Staging.Confidence)
	fmt.Fprintf(&b, "Stage description: %s\n", a.Staging.Description)
	fmt.Fprintf(&b, "Primary treatment: %s\n", strings.Join(a.Treatment.PrimaryTreatment, "; "))
	for _, t := range a.Treatment.TargetedTherapy {
		fmt.Fprintf(&b, "Targeted therapy (%s): %s\n", t.Marker, strings.Join(t.FirstLine, ", "))
	}
	if a.Treatment.Immunotherapy != nil {
		fmt.Fprintf(&b, "Immunotherapy (PD-L1 %s): %s\n", a.Treatment.Immunotherapy.Tier, strings.Join(a.Treatment.Immunotherapy.FirstLine, ", "))
	}
	fmt.Fprintf(&b, "Estimated 5-year survival: %d%% (%s), outlook %s\n",
		a.Prognosis.AdjustedSurvival, a.Prognosis.AdjustedRange, a.Prognosis.Outlook)
	if len(a.Trials) == 0 {
		b.WriteString("Matching clinical trials: none\n")
	} else {
		b.WriteString("Matching clinical trials:\n")
		for _, t := range a.Trials {
			fmt.Fprintf(&b, "- %s: %s (Phase %s, %s)\n", t.ID, t.Title, t.Phase, t.Status)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
