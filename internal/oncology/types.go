// Package oncology holds the rule-based lung cancer analyzers: histological
// classification, TNM staging, treatment matching, prognosis estimation and
// clinical trial lookup. Every function is pure over its inputs.
package oncology

import "fmt"

const (
	TypeSCLC        = "Small Cell Lung Cancer (SCLC)"
	TypeNSCLC       = "Non-Small Cell Lung Cancer (NSCLC)"
	TypeLikelyNSCLC = "Likely Non-Small Cell Lung Cancer (NSCLC)"
)

// ClinicalProfile is the classifier output.
type ClinicalProfile struct {
	MainType        string   `json:"main_type"`
	Subtype         string   `json:"subtype"`
	GeneticMarkers  []string `json:"genetic_markers"`
	SmokingStatus   string   `json:"smoking_status"`
	Differentiation string   `json:"differentiation"`
	Confidence      float64  `json:"confidence"`
}

// StagingResult is the stager output. T, N and M are empty for SCLC.
type StagingResult struct {
	Stage       string  `json:"stage"`
	TNM         string  `json:"tnm"`
	T           string  `json:"t,omitempty"`
	N           string  `json:"n,omitempty"`
	M           string  `json:"m,omitempty"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// Patient carries the optional per-patient factors. Nil pointers mean the
// factor is unknown.
type Patient struct {
	Age               *int     `json:"age,omitempty"`
	Gender            string   `json:"gender,omitempty"`
	PerformanceStatus *int     `json:"performance_status,omitempty"`
	WeightLoss        *bool    `json:"weight_loss,omitempty"`
	Comorbidities     []string `json:"comorbidities,omitempty"`
	MetastasisSites   []string `json:"metastasis_sites,omitempty"`
	BrainMetastases   *bool    `json:"brain_metastases,omitempty"`
	PDL1              string   `json:"pd_l1,omitempty"`
	PriorTreatment    string   `json:"prior_treatment,omitempty"`
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

type TargetedTherapy struct {
	Marker     string   `json:"marker"`
	FirstLine  []string `json:"first_line"`
	Subsequent []string `json:"subsequent"`
}

type ImmunotherapyOptions struct {
	Tier        string   `json:"tier"`
	FirstLine   []string `json:"first_line,omitempty"`
	Combination []string `json:"combination,omitempty"`
	Alternative []string `json:"alternative,omitempty"`
	Subsequent  []string `json:"subsequent,omitempty"`
}

// TreatmentPlan is the treatment advisor output. Only the lists relevant to
// the cancer type and stage are populated.
type TreatmentPlan struct {
	CancerType             string                `json:"cancer_type"`
	Stage                  string                `json:"stage"`
	PrimaryTreatment       []string              `json:"primary_treatment"`
	AlternativeTreatments  []string              `json:"alternative_treatments,omitempty"`
	AdjuvantTherapy        []string              `json:"adjuvant_therapy,omitempty"`
	TreatmentOptions       []string              `json:"treatment_options,omitempty"`
	AdditionalTreatments   []string              `json:"additional_treatments,omitempty"`
	Chemotherapy           []string              `json:"chemotherapy,omitempty"`
	RadiationTherapy       []string              `json:"radiation_therapy,omitempty"`
	FirstLine              []string              `json:"first_line,omitempty"`
	SubsequentTherapy      []string              `json:"subsequent_therapy,omitempty"`
	Notes                  []string              `json:"notes,omitempty"`
	TargetedTherapy        []TargetedTherapy     `json:"targeted_therapy,omitempty"`
	Immunotherapy          *ImmunotherapyOptions `json:"immunotherapy,omitempty"`
	ClinicalConsiderations []string              `json:"clinical_considerations,omitempty"`
	GeneralRecommendations []string              `json:"general_recommendations"`
}

// Range is an inclusive survival percentage range.
type Range struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

func (r Range) String() string { return fmt.Sprintf("%d%% to %d%%", r.Low, r.High) }

// AdjustmentFactor records one survival adjustment. Impact is "Positive"
// or "Negative"; Points is the signed change in percentage points.
type AdjustmentFactor struct {
	Factor     string `json:"factor"`
	Impact     string `json:"impact"`
	Adjustment string `json:"adjustment"`
	Points     int    `json:"points"`
}

// PrognosisEstimate is the prognosis predictor output.
type PrognosisEstimate struct {
	CancerType        string             `json:"cancer_type"`
	CancerStage       string             `json:"cancer_stage"`
	BaseSurvival      int                `json:"base_5yr_survival_rate"`
	BaseRange         Range              `json:"base_5yr_survival_range"`
	AdjustedSurvival  int                `json:"adjusted_5yr_survival_rate"`
	AdjustedRange     Range              `json:"adjusted_5yr_survival_range"`
	AdjustmentFactors []AdjustmentFactor `json:"adjustment_factors"`
	Outlook           string             `json:"outlook"`
	Description       string             `json:"prognosis_description"`
	Recommendations   []string           `json:"recommendations"`
}
