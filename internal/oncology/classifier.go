package oncology

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	sclcTerms     = []string{"small cell", "sclc", "oat cell", "neuroendocrine", "extensive-stage", "limited-stage"}
	nsclcTerms    = []string{"non-small cell", "nsclc", "non small cell", "nonsmall cell"}
	adenoTerms    = []string{"adenocarcinoma", "acinar", "papillary", "bronchioloalveolar", "lepidic", "egfr mutation", "alk rearrangement", "ros1", "ground glass"}
	squamousTerms = []string{"squamous", "epidermoid", "keratinizing", "squamous cell carcinoma", "scc"}
	largeTerms    = []string{"large cell", "large-cell", "undifferentiated", "anaplastic", "pleomorphic"}

	confirmationTerms = []string{"biopsy confirmed", "pathology report", "histologically confirmed", "immunohistochemistry", "histopathology", "cytology"}

	packYearsRe = regexp.MustCompile(`(\d+)\s*pack[\s-]years?`)
)

type marker struct {
	name    string
	aliases []string
	// bare are ordinary English words that only count as the marker when a
	// genomic qualifier follows them ("met amplification", "ret+").
	bare []string
}

var markers = []marker{
	{"EGFR", []string{"egfr", "epidermal growth factor receptor"}, nil},
	{"ALK", []string{"alk", "anaplastic lymphoma kinase"}, nil},
	{"ROS1", []string{"ros1", "ros-1"}, nil},
	{"BRAF", []string{"braf", "b-raf"}, nil},
	{"KRAS", []string{"kras", "k-ras"}, nil},
	{"MET", []string{"c-met", "met exon 14"}, []string{"met"}},
	{"RET", nil, []string{"ret"}},
	{"NTRK", []string{"ntrk", "neurotrophic receptor tyrosine kinase"}, nil},
	{"HER2", []string{"her2", "erbb2"}, nil},
	{"PD-L1", []string{"pd-l1", "programmed death-ligand 1"}, nil},
}

type grade struct {
	label string
	terms []string
}

var differentiationGrades = []grade{
	{"Well Differentiated", []string{"well differentiated", "grade 1"}},
	{"Moderately Differentiated", []string{"moderately differentiated", "grade 2"}},
	{"Poorly Differentiated", []string{"poorly differentiated", "grade 3"}},
	{"Undifferentiated", []string{"undifferentiated", "grade 4"}},
}

// Classify derives the histological profile from free text (symptoms, test
// results) and the medical history. Smoking status is read from the history
// and falls back to the whole text when no history is given.
func Classify(text, history string) ClinicalProfile {
	history = strings.ToLower(strings.TrimSpace(history))
	combined := strings.ToLower(text)
	if history != "" {
		combined += " " + history
	}

	sclc := countTerms(combined, sclcTerms)
	nsclc := countTerms(combined, nsclcTerms)
	adeno := countTerms(combined, adenoTerms)
	squamous := countTerms(combined, squamousTerms)
	large := countTerms(combined, largeTerms)

	profile := ClinicalProfile{}
	switch {
	case sclc > nsclc:
		profile.MainType = TypeSCLC
		switch {
		case strings.Contains(combined, "combined"):
			profile.Subtype = "Combined Small Cell Carcinoma"
		case strings.Contains(combined, "pure"):
			profile.Subtype = "Pure Small Cell Carcinoma"
		default:
			profile.Subtype = "Small Cell Carcinoma"
		}
	default:
		if nsclc > 0 || adeno+squamous+large > 0 {
			profile.MainType = TypeNSCLC
		} else {
			profile.MainType = TypeLikelyNSCLC
		}
		switch {
		case adeno > squamous && adeno > large:
			profile.Subtype = "Adenocarcinoma"
		case squamous > adeno && squamous > large:
			profile.Subtype = "Squamous Cell Carcinoma"
		case large > 0:
			profile.Subtype = "Large Cell Carcinoma"
		default:
			profile.Subtype = "Unspecified NSCLC"
		}
	}

	profile.GeneticMarkers = geneticMarkers(combined)
	smokingText := history
	if smokingText == "" {
		smokingText = combined
	}
	profile.SmokingStatus = smokingStatus(smokingText)
	profile.Differentiation = differentiation(combined)

	confidence := 0.5
	if !strings.HasPrefix(profile.MainType, "Likely") {
		confidence += 0.1
	}
	if profile.Subtype != "Unspecified NSCLC" {
		confidence += 0.1
	}
	if containsAny(combined, confirmationTerms...) {
		confidence += 0.05
	}
	if confidence > 0.95 {
		confidence = 0.95
	}
	profile.Confidence = confidence
	return profile
}

// geneticMarkers returns the sorted set of detected markers with their
// alteration qualifier. Aliases match on word boundaries so that "met" does
// not fire on "metastasis".
func geneticMarkers(text string) []string {
	found := map[string]struct{}{}
	for _, m := range markers {
		hit := false
		for _, alias := range m.aliases {
			if hasWord(text, alias) {
				hit = true
				break
			}
		}
		for _, word := range m.bare {
			if hit {
				break
			}
			hit = hasQualifiedWord(text, word)
		}
		if !hit {
			continue
		}
		found[qualifyMarker(text, m.name)] = struct{}{}
	}
	out := make([]string, 0, len(found))
	for name := range found {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func qualifyMarker(text, name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(text, lower+" mutation") || strings.Contains(text, "mutated"):
		return name + " Mutation"
	case strings.Contains(text, lower+" fusion"):
		return name + " Fusion"
	case strings.Contains(text, lower+" rearrangement"):
		return name + " Rearrangement"
	case strings.Contains(text, lower+" amplification"):
		return name + " Amplification"
	case strings.Contains(text, lower+" positive") || strings.Contains(text, lower+"+"):
		return name + " Positive"
	default:
		return name
	}
}

func smokingStatus(text string) string {
	switch {
	case containsAny(text, "never smok", "non-smoker", "nonsmoker"):
		return "Never Smoker"
	case containsAny(text, "former smoker", "ex-smoker", "quit smoking"):
		return "Former Smoker"
	case containsAny(text, "smoker", "pack-year", "smoking"):
		if m := packYearsRe.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return "Current Smoker (" + strconv.Itoa(n) + " pack-years)"
			}
		}
		return "Current Smoker"
	default:
		return "Unknown"
	}
}

func differentiation(text string) string {
	for _, g := range differentiationGrades {
		if containsAny(text, g.terms...) {
			return g.label
		}
	}
	return "Unknown Differentiation"
}
