package oncology

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	ageRe         = regexp.MustCompile(`(\d{1,3})[- ]years?[- ]old`)
	femaleRe      = regexp.MustCompile(`\b(female|woman|women|girl|lady)\b`)
	maleRe        = regexp.MustCompile(`\b(male|man|men|boy|gentleman)\b`)
	ecogRe        = regexp.MustCompile(`(?:ecog|performance status)(?:\s+(?:ps|performance status|score))?\s*(?:of|:|=|is)?\s*([0-4])\b`)
	weightLossRe  = regexp.MustCompile(`weight loss|lost weight|lost \d+(?:\.\d+)?\s*(?:kg|kgs|lbs?|pounds)`)
	pdl1PercentRe = regexp.MustCompile(`(?:pd-l1|pdl1|tps)[^%\d]{0,40}?(\d{1,3})\s*%`)
	siteRes       = []*regexp.Regexp{
		regexp.MustCompile(`(brain|liver|hepatic|bone|osseous|adrenal)\s+(?:metasta\w*|lesions?|mets|involvement)`),
		regexp.MustCompile(`(?:metasta\w*|spread|spreading)\s+(?:to|in|into)\s+(?:the\s+)?(brain|liver|bone|bones|adrenal)`),
	}
	siteAliases = map[string]string{"hepatic": "liver", "osseous": "bone", "bones": "bone"}
	siteOrder   = []string{"brain", "liver", "bone", "adrenal"}

	comorbidityTerms = []string{
		"heart failure", "heart disease", "coronary artery disease", "cardiac",
		"copd", "emphysema", "pulmonary fibrosis", "interstitial lung disease",
		"renal failure", "kidney disease", "renal insufficiency",
		"hearing loss", "neuropathy", "diabetes", "hypertension",
	}
)

// ExtractPatient reads patient factors from free text. Factors that are not
// mentioned stay unset.
func ExtractPatient(text string) Patient {
	lower := strings.ToLower(text)
	var p Patient

	if m := ageRe.FindStringSubmatch(lower); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil && age > 0 && age < 130 {
			p.Age = Int(age)
		}
	}
	switch {
	case femaleRe.MatchString(lower):
		p.Gender = "female"
	case maleRe.MatchString(lower):
		p.Gender = "male"
	}
	if m := ecogRe.FindStringSubmatch(lower); m != nil {
		ps, _ := strconv.Atoi(m[1])
		p.PerformanceStatus = Int(ps)
	}
	switch {
	case strings.Contains(lower, "no weight loss"):
		p.WeightLoss = Bool(false)
	case weightLossRe.MatchString(lower):
		p.WeightLoss = Bool(true)
	}
	for _, term := range comorbidityTerms {
		if strings.Contains(lower, term) {
			p.Comorbidities = append(p.Comorbidities, term)
		}
	}
	p.MetastasisSites = metastasisSitesIn(lower)
	switch {
	case hasSite(p.MetastasisSites, "brain"):
		p.BrainMetastases = Bool(true)
	case containsAny(lower, "no brain metasta", "without brain metasta", "brain mri negative", "no intracranial"):
		p.BrainMetastases = Bool(false)
	}
	p.PDL1 = pdl1Expression(lower)
	return p
}

func metastasisSitesIn(text string) []string {
	found := map[string]bool{}
	for _, re := range siteRes {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			if negated(text, loc[0]) {
				continue
			}
			site := text[loc[2]:loc[3]]
			if alias, ok := siteAliases[site]; ok {
				site = alias
			}
			found[site] = true
		}
	}
	var sites []string
	for _, s := range siteOrder {
		if found[s] {
			sites = append(sites, s)
		}
	}
	return sites
}

// negated reports whether the phrase starting at idx is preceded by a
// negation such as "no" or "without".
func negated(text string, idx int) bool {
	start := idx - 12
	if start < 0 {
		start = 0
	}
	window := text[start:idx]
	return hasWord(window, "no") || hasWord(window, "without") || hasWord(window, "negative for")
}

// pdl1Expression turns a PD-L1 mention into a tier label understood by
// PDL1Tier: a percentage when one is given, otherwise a qualitative word.
func pdl1Expression(text string) string {
	if m := pdl1PercentRe.FindStringSubmatch(text); m != nil {
		if pct, err := strconv.Atoi(m[1]); err == nil && pct <= 100 {
			return pdl1Band(float64(pct))
		}
	}
	if !containsAny(text, "pd-l1", "pdl1") {
		return ""
	}
	switch {
	case containsAny(text, "pd-l1 high", "high pd-l1", "pd-l1 strongly positive"):
		return PDL1High
	case containsAny(text, "pd-l1 low", "low pd-l1"):
		return PDL1Low
	case containsAny(text, "pd-l1 negative", "pd-l1 <1%", "pd-l1 < 1%"):
		return PDL1Negative
	}
	return ""
}

// Merge overlays the explicitly set fields of override onto p.
func (p Patient) Merge(override Patient) Patient {
	if override.Age != nil {
		p.Age = override.Age
	}
	if override.Gender != "" {
		p.Gender = override.Gender
	}
	if override.PerformanceStatus != nil {
		p.PerformanceStatus = override.PerformanceStatus
	}
	if override.WeightLoss != nil {
		p.WeightLoss = override.WeightLoss
	}
	if len(override.Comorbidities) > 0 {
		p.Comorbidities = override.Comorbidities
	}
	if len(override.MetastasisSites) > 0 {
		p.MetastasisSites = override.MetastasisSites
	}
	if override.BrainMetastases != nil {
		p.BrainMetastases = override.BrainMetastases
	}
	if override.PDL1 != "" {
		p.PDL1 = override.PDL1
	}
	if override.PriorTreatment != "" {
		p.PriorTreatment = override.PriorTreatment
	}
	return p
}
