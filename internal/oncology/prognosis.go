package oncology

import (
	"fmt"
	"strings"
)

var nsclcSurvival = map[string]int{
	"IA1": 92, "IA2": 83, "IA3": 77, "IA": 84, "IB": 68,
	"IIA": 60, "IIB": 53, "II": 56,
	"IIIA": 36, "IIIB": 26, "IIIC": 13, "III": 30,
	"IVA": 10, "IVB": 1, "IV": 7,
}

const (
	defaultSurvival = 50
	sclcLimited     = 27
	sclcExtensive   = 3
	sclcUnknown     = 7
)

var positiveMarkers = []string{"egfr mutation", "alk rearrangement", "ros1 fusion"}

var siteAdjustments = []struct {
	site   string
	label  string
	impact int
}{
	{"brain", "Brain metastases", -10},
	{"liver", "Liver metastases", -8},
	{"bone", "Bone metastases", -5},
	{"adrenal", "Adrenal metastases", -3},
}

// PredictPrognosis estimates five-year survival for the given type and
// stage and adjusts it by patient factors and detected markers.
func PredictPrognosis(mainType, stage string, patient Patient, markers []string) PrognosisEstimate {
	normalized := normalizeStage(stage)
	sclc := IsSCLC(mainType)

	base := baseSurvival(sclc, normalized)
	est := PrognosisEstimate{
		CancerType:   mainType,
		CancerStage:  stage,
		BaseSurvival: base,
		BaseRange:    survivalRange(base, 5),
	}

	add := func(factor string, points int) {
		impact := "Positive"
		if points < 0 {
			impact = "Negative"
		}
		est.AdjustmentFactors = append(est.AdjustmentFactors, AdjustmentFactor{
			Factor:     factor,
			Impact:     impact,
			Adjustment: fmt.Sprintf("%+d%%", points),
			Points:     points,
		})
	}

	if patient.Age != nil {
		switch age := *patient.Age; {
		case age < 50:
			add("Younger age (<50)", 5)
		case age >= 70:
			add("Older age (≥70)", -5)
		}
	}
	switch strings.ToLower(strings.TrimSpace(patient.Gender)) {
	case "female", "f":
		add("Female gender", 3)
	case "male", "m":
		add("Male gender", -1)
	}
	if ps := patient.PerformanceStatus; ps != nil {
		if *ps <= 1 {
			add("Good performance status (0-1)", 5)
		} else {
			add("Poor performance status (≥2)", -10)
		}
	}
	if patient.WeightLoss != nil && *patient.WeightLoss {
		add("Significant weight loss", -5)
	}
	for _, m := range markers {
		lower := strings.ToLower(m)
		switch {
		case containsAny(lower, positiveMarkers...):
			if strings.Contains(normalized, "IV") {
				add(m, 10)
			} else {
				add(m, 5)
			}
		case strings.Contains(lower, "kras mutation"):
			add(m, -3)
		}
	}
	for _, adj := range siteAdjustments {
		for _, site := range patient.MetastasisSites {
			if strings.Contains(strings.ToLower(site), adj.site) {
				add(adj.label, adj.impact)
				break
			}
		}
	}

	adjusted := base
	for _, f := range est.AdjustmentFactors {
		adjusted += f.Points
	}
	adjusted = clamp(adjusted, 1, 99)
	est.AdjustedSurvival = adjusted
	est.AdjustedRange = survivalRange(adjusted, 7)
	est.Outlook = outlook(adjusted)
	est.Description = describePrognosis(mainType, stage, adjusted, est.Outlook, est.AdjustmentFactors)
	est.Recommendations = prognosisRecommendations(sclc, normalized, markers, patient.MetastasisSites)
	return est
}

func baseSurvival(sclc bool, stage string) int {
	if sclc {
		switch {
		case strings.Contains(stage, "LIMITED"):
			return sclcLimited
		case strings.Contains(stage, "EXTENSIVE"):
			return sclcExtensive
		default:
			return sclcUnknown
		}
	}
	if rate, ok := nsclcSurvival[stage]; ok {
		return rate
	}
	for _, fb := range []string{"IV", "III", "II", "I"} {
		if strings.HasPrefix(stage, fb) {
			return nsclcSurvival[fb+"A"]
		}
	}
	return defaultSurvival
}

func survivalRange(rate, spread int) Range {
	return Range{Low: clamp(rate-spread, 1, 99), High: clamp(rate+spread, 1, 99)}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func outlook(rate int) string {
	switch {
	case rate >= 70:
		return "favorable"
	case rate >= 40:
		return "intermediate"
	case rate >= 15:
		return "guarded"
	default:
		return "poor"
	}
}

func describePrognosis(mainType, stage string, rate int, outlook string, factors []AdjustmentFactor) string {
	var positive, negative []string
	for _, f := range factors {
		if f.Points < 0 {
			negative = append(negative, f.Factor)
		} else {
			positive = append(positive, f.Factor)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The overall prognosis for %s at %s is %s. ", mainType, stage, outlook)
	fmt.Fprintf(&b, "The estimated 5-year survival rate is approximately %d%%. ", rate)
	if len(positive) > 0 {
		fmt.Fprintf(&b, "Positive factors improving the prognosis include %s. ", strings.Join(positive, ", "))
	}
	if len(negative) > 0 {
		fmt.Fprintf(&b, "Factors that may negatively affect the prognosis include %s. ", strings.Join(negative, ", "))
	}
	b.WriteString("It's important to note that these statistics are based on population averages and individual outcomes may vary significantly.")
	return b.String()
}

func prognosisRecommendations(sclc bool, stage string, markers, sites []string) []string {
	recs := []string{
		"Adhere to treatment plan and follow-up schedule",
		"Maintain good nutrition and stay physically active as tolerated",
		"Quit smoking if currently smoking",
		"Join a support group or seek psychological support",
	}
	if sclc {
		recs = append(recs,
			"Consider prophylactic cranial irradiation if recommended",
			"Prompt reporting of new symptoms due to risk of rapid progression")
	} else {
		targetable := false
		for _, m := range markers {
			if containsAny(strings.ToLower(m), "egfr", "alk", "ros1", "braf") {
				targetable = true
				break
			}
		}
		if targetable {
			recs = append(recs,
				"Adhere to targeted therapy regimen to maximize benefit",
				"Regular monitoring for treatment resistance")
		}
		if strings.Contains(stage, "IV") && len(sites) == 0 {
			recs = append(recs, "Consider comprehensive genomic testing if not already done")
		}
	}
	if hasSite(sites, "brain") {
		recs = append(recs,
			"Be alert for neurological symptoms and report them promptly",
			"Follow neurological monitoring schedule")
	}
	if hasSite(sites, "bone") {
		recs = append(recs,
			"Consider bone-strengthening medications",
			"Take precautions to prevent falls and fractures")
	}
	recs = append(recs, "Discuss clinical trial options with your oncologist")
	if containsAny(stage, "III", "IV", "EXTENSIVE") {
		recs = append(recs, "Consider early integration of palliative care for symptom management")
	}
	return recs
}

func hasSite(sites []string, site string) bool {
	for _, s := range sites {
		if strings.Contains(strings.ToLower(s), site) {
			return true
		}
	}
	return false
}
