package oncology

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

type stageBundle struct {
	primary     []string
	alternative []string
	adjuvant    []string
	options     []string
	additional  []string
}

const stagingRequired = "Treatment recommendations require accurate staging"

var nsclcBundles = map[string]stageBundle{
	"IA": {
		primary:     []string{"Surgical resection (lobectomy preferred)"},
		alternative: []string{"Stereotactic Body Radiation Therapy (SBRT) if medically inoperable"},
		adjuvant:    []string{"Observation", "Consider adjuvant chemotherapy for high-risk features"},
	},
	"IB": {
		primary:     []string{"Surgical resection (lobectomy preferred)"},
		alternative: []string{"Stereotactic Body Radiation Therapy (SBRT) if medically inoperable"},
		adjuvant:    []string{"Consider adjuvant chemotherapy for high-risk features"},
	},
	"IIA": {
		primary:     []string{"Surgical resection (lobectomy preferred)"},
		alternative: []string{"Definitive radiation therapy if medically inoperable"},
		adjuvant:    []string{"Adjuvant chemotherapy"},
	},
	"IIB": {
		primary:     []string{"Surgical resection (lobectomy preferred)"},
		alternative: []string{"Definitive radiation therapy if medically inoperable"},
		adjuvant:    []string{"Adjuvant chemotherapy"},
	},
	"IIIA": {
		primary: []string{"Multidisciplinary evaluation"},
		options: []string{"Surgery followed by adjuvant chemotherapy", "Concurrent chemoradiation therapy", "Induction chemotherapy followed by surgery"},
	},
	"IIIB": {
		primary:     []string{"Concurrent chemoradiation therapy"},
		alternative: []string{"Sequential chemoradiation therapy if poor performance status"},
		additional:  []string{"Consider durvalumab after chemoradiation if no progression"},
	},
	"IIIC": {
		primary:     []string{"Concurrent chemoradiation therapy"},
		alternative: []string{"Sequential chemoradiation therapy if poor performance status"},
		additional:  []string{"Consider durvalumab after chemoradiation if no progression"},
	},
	"IVA": {
		primary: []string{"Systemic therapy based on biomarker testing"},
		options: []string{"Targeted therapy for actionable mutations", "Immunotherapy for PD-L1 positive tumors", "Chemotherapy", "Consider local therapy for oligometastatic disease"},
	},
	"IVB": {
		primary: []string{"Systemic therapy based on biomarker testing"},
		options: []string{"Targeted therapy for actionable mutations", "Immunotherapy for PD-L1 positive tumors", "Chemotherapy", "Best supportive care"},
	},
}

// stageFallbacks maps a stage prefix to its representative bundle. Longer
// numerals are tried first so "IV" is not read as "I".
var stageFallbacks = []struct{ prefix, stage string }{
	{"IV", "IVA"},
	{"III", "IIIA"},
	{"II", "IIA"},
	{"I", "IA"},
}

type markerTherapy struct {
	key        string
	firstLine  []string
	subsequent []string
}

var targetedTherapies = []markerTherapy{
	{"EGFR Mutation", []string{"Osimertinib", "Erlotinib", "Gefitinib", "Afatinib", "Dacomitinib"}, []string{"Osimertinib (if not used first-line)", "Chemotherapy", "Clinical trial"}},
	{"ALK Rearrangement", []string{"Alectinib", "Brigatinib", "Lorlatinib"}, []string{"Lorlatinib", "Ceritinib", "Chemotherapy"}},
	{"ROS1 Fusion", []string{"Entrectinib", "Crizotinib"}, []string{"Lorlatinib", "Chemotherapy"}},
	{"BRAF Mutation", []string{"Dabrafenib + Trametinib"}, []string{"Immunotherapy", "Chemotherapy"}},
	{"KRAS Mutation", []string{"Sotorasib", "Adagrasib"}, []string{"Immunotherapy", "Chemotherapy"}},
	{"MET Exon 14", []string{"Tepotinib", "Capmatinib"}, []string{"Chemotherapy"}},
	{"RET Fusion", []string{"Selpercatinib", "Pralsetinib"}, []string{"Cabozantinib", "Chemotherapy"}},
	{"NTRK Fusion", []string{"Larotrectinib", "Entrectinib"}, []string{"Chemotherapy"}},
	{"HER2 Mutation", []string{"Trastuzumab deruxtecan", "Chemotherapy"}, []string{"Clinical trial", "Chemotherapy"}},
}

const (
	PDL1High     = "high"
	PDL1Low      = "low"
	PDL1Negative = "negative"
)

var immunotherapyTiers = map[string]ImmunotherapyOptions{
	PDL1High: {
		Tier:        PDL1High,
		FirstLine:   []string{"Pembrolizumab", "Cemiplimab", "Atezolizumab"},
		Combination: []string{"Pembrolizumab + chemotherapy", "Atezolizumab + chemotherapy + bevacizumab"},
	},
	PDL1Low: {
		Tier:        PDL1Low,
		FirstLine:   []string{"Pembrolizumab + chemotherapy", "Atezolizumab + chemotherapy + bevacizumab"},
		Alternative: []string{"Pembrolizumab monotherapy", "Chemotherapy"},
	},
	PDL1Negative: {
		Tier:       PDL1Negative,
		FirstLine:  []string{"Chemotherapy + immunotherapy", "Chemotherapy"},
		Subsequent: []string{"Nivolumab", "Atezolizumab", "Pembrolizumab"},
	},
}

var (
	nsclcGeneral = []string{
		"Smoking cessation counseling if currently smoking",
		"Multidisciplinary tumor board discussion recommended",
		"Consider clinical trial participation",
		"Palliative care integration throughout treatment course",
	}
	sclcGeneral = []string{
		"Smoking cessation counseling if currently smoking",
		"Multidisciplinary tumor board discussion recommended",
		"Consider clinical trial participation",
		"Early integration of palliative care recommended",
		"Close monitoring for treatment response (typically after 2-3 cycles)",
	}
)

// RecommendTreatment matches the profile and stage against the treatment
// tables. Patient factors only add clinical considerations and the PD-L1
// immunotherapy tier.
func RecommendTreatment(profile ClinicalProfile, staging StagingResult, patient Patient) TreatmentPlan {
	if IsSCLC(profile.MainType) {
		return recommendSCLC(profile, staging, patient)
	}
	return recommendNSCLC(profile, staging, patient)
}

func recommendNSCLC(profile ClinicalProfile, staging StagingResult, patient Patient) TreatmentPlan {
	plan := TreatmentPlan{CancerType: profile.MainType, Stage: staging.Stage}
	stage := normalizeStage(staging.Stage)

	bundle, ok := nsclcBundles[stage]
	if !ok {
		for _, fb := range stageFallbacks {
			if strings.HasPrefix(stage, fb.prefix) {
				bundle, ok = nsclcBundles[fb.stage], true
				break
			}
		}
	}
	if !ok {
		plan.PrimaryTreatment = []string{stagingRequired}
		plan.Notes = []string{"Please consult with a multidisciplinary tumor board"}
	} else {
		plan.PrimaryTreatment = copyStrings(bundle.primary)
		plan.AlternativeTreatments = copyStrings(bundle.alternative)
		plan.AdjuvantTherapy = copyStrings(bundle.adjuvant)
		plan.TreatmentOptions = copyStrings(bundle.options)
		plan.AdditionalTreatments = copyStrings(bundle.additional)
	}

	advanced := strings.HasPrefix(stage, "IV")
	for _, m := range profile.GeneticMarkers {
		lower := strings.ToLower(m)
		for _, therapy := range targetedTherapies {
			if !strings.Contains(lower, strings.ToLower(therapy.key)) {
				continue
			}
			plan.TargetedTherapy = append(plan.TargetedTherapy, TargetedTherapy{
				Marker:     m,
				FirstLine:  copyStrings(therapy.firstLine),
				Subsequent: copyStrings(therapy.subsequent),
			})
			if advanced {
				plan.PrimaryTreatment = append([]string{"Targeted therapy for " + m}, therapy.firstLine...)
			}
		}
	}

	if tier := PDL1Tier(patient.PDL1); tier != "" {
		options := immunotherapyTiers[tier]
		plan.Immunotherapy = &options
		if tier == PDL1High && advanced && len(plan.TargetedTherapy) == 0 {
			plan.PrimaryTreatment = append([]string{"Immunotherapy (PD-L1 high expression)"}, options.FirstLine...)
		}
	}

	var considerations []string
	if patient.Age != nil && *patient.Age >= 75 {
		considerations = append(considerations, "Consider less intensive therapy due to advanced age")
	}
	if patient.PerformanceStatus != nil && *patient.PerformanceStatus >= 2 {
		considerations = append(considerations,
			"Consider less intensive therapy due to poor performance status",
			"Evaluate for palliative care referral")
	}
	for _, c := range patient.Comorbidities {
		lower := strings.ToLower(c)
		if containsAny(lower, "heart", "cardiac") {
			considerations = append(considerations, "Cardiac evaluation recommended before treatment")
		}
		if containsAny(lower, "pulmonary", "copd") {
			considerations = append(considerations, "Pulmonary function testing recommended before surgery")
		}
	}
	plan.ClinicalConsiderations = dedupe(considerations)
	plan.GeneralRecommendations = copyStrings(nsclcGeneral)
	return plan
}

func recommendSCLC(profile ClinicalProfile, staging StagingResult, patient Patient) TreatmentPlan {
	plan := TreatmentPlan{CancerType: profile.MainType, Stage: staging.Stage}
	switch staging.Stage {
	case StageLimited:
		plan.PrimaryTreatment = []string{"Concurrent chemoradiation therapy"}
		plan.Chemotherapy = []string{"Platinum-based chemotherapy (cisplatin or carboplatin) + etoposide"}
		plan.RadiationTherapy = []string{"Thoracic radiation therapy (preferably concurrent with chemotherapy)"}
		plan.AdditionalTreatments = []string{"Prophylactic cranial irradiation (PCI) if good response to initial therapy"}
	case StageExtensive:
		plan.PrimaryTreatment = []string{"Systemic therapy"}
		plan.FirstLine = []string{"Platinum-based chemotherapy (cisplatin or carboplatin) + etoposide + atezolizumab/durvalumab"}
		plan.AlternativeTreatments = []string{"Platinum-based chemotherapy (cisplatin or carboplatin) + etoposide"}
		plan.AdditionalTreatments = []string{"Consider prophylactic cranial irradiation (PCI) if good response to chemotherapy"}
		plan.SubsequentTherapy = []string{"Topotecan", "Lurbinectedin", "Clinical trial", "Best supportive care"}
	default:
		plan.PrimaryTreatment = []string{stagingRequired}
		plan.Notes = []string{"Please consult with a multidisciplinary tumor board"}
	}

	var considerations []string
	if patient.Age != nil && *patient.Age >= 75 {
		considerations = append(considerations,
			"Consider carboplatin instead of cisplatin due to advanced age",
			"Careful assessment of benefit vs. risk for prophylactic cranial irradiation")
	}
	if ps := patient.PerformanceStatus; ps != nil && *ps >= 2 {
		considerations = append(considerations,
			"Consider less intensive therapy due to poor performance status",
			"Evaluate for palliative care referral")
		if *ps >= 3 {
			considerations = append(considerations, "Consider best supportive care instead of aggressive treatment")
		}
	}
	for _, c := range patient.Comorbidities {
		lower := strings.ToLower(c)
		if containsAny(lower, "heart", "cardiac") {
			considerations = append(considerations,
				"Cardiac evaluation recommended before treatment",
				"Consider carboplatin instead of cisplatin")
		}
		if containsAny(lower, "renal", "kidney") {
			considerations = append(considerations,
				"Renal function assessment required",
				"Consider carboplatin instead of cisplatin if renal impairment")
		}
		if containsAny(lower, "hearing", "neuropathy") {
			considerations = append(considerations, "Consider carboplatin instead of cisplatin to reduce neurotoxicity")
		}
	}
	plan.ClinicalConsiderations = dedupe(considerations)
	plan.GeneralRecommendations = copyStrings(sclcGeneral)
	return plan
}

var tierPercentRe = regexp.MustCompile(`(<=|<|≤)?\s*(\d{1,3}(?:\.\d+)?)\s*%`)

// PDL1Tier maps a free-form PD-L1 expression label to high, low or
// negative. A percentage is banded (>= 50 high, 1 to 49 low, below 1
// negative); the last one wins, so "1-49%" is low and "<1%" negative.
// Empty and unrecognised labels yield "".
func PDL1Tier(expression string) string {
	lower := strings.ToLower(strings.TrimSpace(expression))
	if lower == "" {
		return ""
	}
	if m := tierPercentRe.FindAllStringSubmatch(lower, -1); m != nil {
		last := m[len(m)-1]
		if pct, err := strconv.ParseFloat(last[2], 64); err == nil && pct <= 100 {
			if last[1] == "<" {
				pct = math.Nextafter(pct, 0)
			}
			return pdl1Band(pct)
		}
	}
	switch {
	case strings.Contains(lower, "high"), strings.Contains(lower, "strongly positive"):
		return PDL1High
	case strings.Contains(lower, "low"), strings.Contains(lower, "weakly positive"):
		return PDL1Low
	case strings.Contains(lower, "negative"):
		return PDL1Negative
	}
	return ""
}

// pdl1Band returns the tier of a tumour proportion score in percent.
func pdl1Band(pct float64) string {
	switch {
	case pct >= 50:
		return PDL1High
	case pct >= 1:
		return PDL1Low
	default:
		return PDL1Negative
	}
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
