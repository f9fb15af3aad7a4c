package oncology

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// category is one T, N or M class: explicit codes matched as tokens
// (optionally prefixed with c, p or yp) and descriptive phrases matched as
// substrings.
type category struct {
	label   string
	codes   []string
	phrases []string
}

var tCategories = []category{
	{"TX", []string{"tx"}, []string{"tumor cannot be assessed", "primary tumor cannot be assessed"}},
	{"T0", []string{"t0"}, []string{"no evidence of primary tumor"}},
	{"Tis", []string{"tis"}, []string{"carcinoma in situ"}},
	{"T1", []string{"t1"}, []string{"tumor ≤ 3 cm", "tumor <= 3 cm", "tumor 3 cm or less"}},
	{"T1a", []string{"t1a"}, []string{"tumor ≤ 1 cm", "tumor <= 1 cm", "tumor 1 cm or less"}},
	{"T1b", []string{"t1b"}, []string{"tumor > 1 cm but ≤ 2 cm", "tumor > 1 cm but <= 2 cm", "tumor between 1 and 2 cm"}},
	{"T1c", []string{"t1c"}, []string{"tumor > 2 cm but ≤ 3 cm", "tumor > 2 cm but <= 3 cm", "tumor between 2 and 3 cm"}},
	{"T2", []string{"t2"}, []string{"tumor > 3 cm but ≤ 5 cm", "tumor > 3 cm but <= 5 cm", "tumor between 3 and 5 cm"}},
	{"T2a", []string{"t2a"}, []string{"tumor > 3 cm but ≤ 4 cm", "tumor > 3 cm but <= 4 cm", "tumor between 3 and 4 cm"}},
	{"T2b", []string{"t2b"}, []string{"tumor > 4 cm but ≤ 5 cm", "tumor > 4 cm but <= 5 cm", "tumor between 4 and 5 cm"}},
	{"T3", []string{"t3"}, []string{"tumor > 5 cm but ≤ 7 cm", "tumor > 5 cm but <= 7 cm", "tumor between 5 and 7 cm", "invasion of chest wall"}},
	{"T4", []string{"t4"}, []string{"tumor > 7 cm", "tumor more than 7 cm", "invasion of mediastinum", "invasion of diaphragm", "invasion of heart", "invasion of great vessels"}},
}

var nCategories = []category{
	{"NX", []string{"nx"}, []string{"lymph nodes cannot be assessed"}},
	{"N0", []string{"n0"}, []string{"no regional lymph node metastasis"}},
	{"N1", []string{"n1"}, []string{"metastasis in ipsilateral peribronchial", "ipsilateral hilar lymph nodes"}},
	{"N2", []string{"n2"}, []string{"metastasis in ipsilateral mediastinal", "subcarinal lymph nodes"}},
	{"N3", []string{"n3"}, []string{"metastasis in contralateral mediastinal", "contralateral hilar", "ipsilateral or contralateral scalene", "supraclavicular lymph nodes"}},
}

var mCategories = []category{
	{"M0", []string{"m0"}, []string{"no distant metastasis"}},
	{"M1c", []string{"m1c"}, []string{"multiple extrathoracic metastases", "multiple distant metastases"}},
	{"M1b", []string{"m1b"}, []string{"single extrathoracic metastasis", "single distant metastasis"}},
	{"M1a", []string{"m1a"}, []string{"separate tumor nodule in a contralateral lobe", "separate tumor nodules in a contralateral lobe", "pleural nodules", "malignant pleural effusion", "malignant pericardial effusion"}},
	{"M1", []string{"m1"}, []string{"distant metastasis"}},
}

type stageGroup struct {
	stage string
	t, n  []string
	m     string
}

var (
	earlyT    = []string{"T1a", "T1b", "T1c", "T2a", "T2b"}
	anyT      = []string{"*"}
	anyN      = []string{"*"}
	stageRows = []stageGroup{
		{"IA1", []string{"T1a"}, []string{"N0"}, "M0"},
		{"IA2", []string{"T1b"}, []string{"N0"}, "M0"},
		{"IA3", []string{"T1c"}, []string{"N0"}, "M0"},
		{"IB", []string{"T2a"}, []string{"N0"}, "M0"},
		{"IIA", []string{"T2b"}, []string{"N0"}, "M0"},
		{"IIB", earlyT, []string{"N1"}, "M0"},
		{"IIB", []string{"T3"}, []string{"N0"}, "M0"},
		{"IIIA", earlyT, []string{"N2"}, "M0"},
		{"IIIA", []string{"T3"}, []string{"N1"}, "M0"},
		{"IIIA", []string{"T4"}, []string{"N0", "N1"}, "M0"},
		{"IIIB", earlyT, []string{"N3"}, "M0"},
		{"IIIB", []string{"T3", "T4"}, []string{"N2"}, "M0"},
		{"IIIC", []string{"T3", "T4"}, []string{"N3"}, "M0"},
		{"IVA", anyT, anyN, "M1a"},
		{"IVA", anyT, anyN, "M1b"},
		{"IVB", anyT, anyN, "M1c"},
	}
)

var stageDescriptions = map[string]string{
	"IA1":     "Very early cancer confined to lung tissue. Tumor is 1 cm or less.",
	"IA2":     "Very early cancer confined to lung tissue. Tumor is between 1-2 cm.",
	"IA3":     "Very early cancer confined to lung tissue. Tumor is between 2-3 cm.",
	"IA":      "Very early cancer confined to lung tissue. Tumor is 3 cm or less.",
	"IB":      "Early cancer confined to lung tissue. Tumor is between 3-4 cm.",
	"IIA":     "Early cancer confined to lung tissue. Tumor is between 4-5 cm.",
	"IIB":     "Locally advanced cancer that may have spread to nearby lymph nodes or chest structures.",
	"II":      "Early cancer that may have spread to nearby lymph nodes.",
	"IIIA":    "Locally advanced cancer that has spread to lymph nodes on the same side of the chest.",
	"IIIB":    "Locally advanced cancer that has spread to lymph nodes above the collarbone or on the opposite side.",
	"IIIC":    "Locally advanced cancer with extensive lymph node involvement.",
	"III":     "Locally advanced cancer that has spread to nearby structures or lymph nodes.",
	"IVA":     "Advanced cancer that has spread within the chest cavity or to a single area outside the chest.",
	"IVB":     "Advanced cancer that has spread to multiple areas outside the chest.",
	"IV":      "Advanced cancer that has spread to distant parts of the body.",
	"Unknown": "Insufficient information to determine the cancer stage accurately.",
}

const (
	StageLimited       = "Limited-Stage SCLC"
	StageExtensive     = "Extensive-Stage SCLC"
	StageUnknownSCLC   = "Unknown Stage SCLC"
	StageUnknown       = "Unknown"
	tnmNotApplicable   = "Not applicable for SCLC"
	defaultDescription = "Stage information not available."
)

var (
	explicitStageRe = regexp.MustCompile(`\bstage\s+(iv[abc]?|i{1,3}[abc]?[1-3]?)\b`)
	tumorSizeRe     = regexp.MustCompile(`tumor\s+(?:size|measures|measuring|of)\s+(\d+(?:\.\d+)?)\s*(?:cm|centimeter)`)

	invasionTerms   = []string{"invades", "invasion", "invading", "extends into"}
	t3InvasionSites = []string{"chest wall", "parietal pleura", "phrenic nerve"}
	t4InvasionSites = []string{"mediastinum", "heart", "great vessels", "trachea", "carina", "esophagus", "vertebra", "diaphragm"}
	metastasisSites = []string{"brain", "liver", "adrenal", "bone"}

	limitedTerms   = []string{"limited stage", "limited-stage", "confined to hemithorax", "confined to one hemithorax", "confined to ipsilateral hemithorax", "can be encompassed in a radiation field"}
	extensiveTerms = []string{"extensive stage", "extensive-stage", "beyond one hemithorax", "distant metastasis", "beyond radiation field", "metastatic", "metastases"}
	spreadTerms    = []string{"metastasis", "metastases", "metastatic", "distant spread", "spread to liver", "spread to brain", "spread to bone", "spread to adrenal"}

	codeMu    sync.Mutex
	codeCache = map[string]*regexp.Regexp{}
)

// Stage determines the cancer stage from free text. SCLC uses the
// Limited/Extensive system; everything else uses TNM (8th edition groups).
func Stage(mainType, text string) StagingResult {
	lower := strings.ToLower(text)
	if IsSCLC(mainType) {
		return stageSCLC(lower)
	}

	t, n, m := tCategory(lower), nCategory(lower), mCategory(lower)
	result := StagingResult{
		T:   t,
		N:   n,
		M:   m,
		TNM: t + " " + n + " " + m,
	}

	switch stage, ok := explicitStage(lower); {
	case ok:
		result.Stage, result.Confidence = stage, 0.9
	case m == "M1c":
		result.Stage, result.Confidence = "IVB", 0.9
	case m == "M1a" || m == "M1b":
		result.Stage, result.Confidence = "IVA", 0.9
	case m == "M1":
		result.Stage, result.Confidence = "IV", 0.8
	default:
		result.Stage, result.Confidence = groupStage(t, n, m)
	}
	result.Description = describeStage(result.Stage)
	return result
}

func explicitStage(text string) (string, bool) {
	match := explicitStageRe.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	stage := strings.ToUpper(match[1])
	switch stage {
	case "I", "II", "III", "IV":
		stage += "A"
	}
	return stage, true
}

func groupStage(t, n, m string) (string, float64) {
	for _, row := range stageRows {
		if row.m != m || !matchesClass(row.t, t) || !matchesClass(row.n, n) {
			continue
		}
		confidence := 0.8
		if strings.Contains(t, "X") || strings.Contains(n, "X") {
			confidence -= 0.2
		}
		return row.stage, confidence
	}
	switch {
	case strings.HasPrefix(t, "T1") && n == "N0":
		return "IA", 0.6
	case (t == "T2a" || t == "T2b") && n == "N0":
		return "IB", 0.6
	case n == "N1":
		return "II", 0.5
	case n == "N2" || n == "N3" || t == "T4":
		return "III", 0.5
	}
	return StageUnknown, 0.3
}

func matchesClass(allowed []string, value string) bool {
	for _, a := range allowed {
		if a == "*" || a == value {
			return true
		}
	}
	return false
}

func describeStage(stage string) string {
	if d, ok := stageDescriptions[stage]; ok {
		return d
	}
	return defaultDescription
}

func hasCode(text, code string) bool {
	codeMu.Lock()
	re, ok := codeCache[code]
	if !ok {
		re = regexp.MustCompile(`\b(?:y?[cp])?` + regexp.QuoteMeta(code) + `\b`)
		codeCache[code] = re
	}
	codeMu.Unlock()
	return re.MatchString(text)
}

// match runs explicit codes across every category before descriptive
// phrases so that "t2a" is never shadowed by an earlier phrase hit.
func match(text string, categories []category) (string, bool) {
	for _, c := range categories {
		for _, code := range c.codes {
			if hasCode(text, code) {
				return c.label, true
			}
		}
	}
	for _, c := range categories {
		if containsAny(text, c.phrases...) {
			return c.label, true
		}
	}
	return "", false
}

func tCategory(text string) string {
	if label, ok := match(text, tCategories); ok {
		return label
	}
	if m := tumorSizeRe.FindStringSubmatch(text); m != nil {
		if size, err := strconv.ParseFloat(m[1], 64); err == nil {
			return tFromSize(size)
		}
	}
	if containsAny(text, invasionTerms...) {
		switch {
		case containsAny(text, t3InvasionSites...):
			return "T3"
		case containsAny(text, t4InvasionSites...):
			return "T4"
		}
	}
	return "TX"
}

func tFromSize(cm float64) string {
	switch {
	case cm <= 1:
		return "T1a"
	case cm <= 2:
		return "T1b"
	case cm <= 3:
		return "T1c"
	case cm <= 4:
		return "T2a"
	case cm <= 5:
		return "T2b"
	case cm <= 7:
		return "T3"
	default:
		return "T4"
	}
}

func nCategory(text string) string {
	if label, ok := match(text, nCategories); ok {
		return label
	}
	switch {
	case containsAny(text, "no lymph node", "lymph nodes negative", "no nodal involvement"):
		return "N0"
	case containsAny(text, "ipsilateral hilar", "peribronchial"):
		return "N1"
	case containsAny(text, "ipsilateral mediastinal", "subcarinal"):
		return "N2"
	case containsAny(text, "contralateral", "supraclavicular", "scalene"):
		return "N3"
	}
	return "NX"
}

func mCategory(text string) string {
	if label, ok := match(text, mCategories); ok {
		return label
	}
	site := containsAny(text, metastasisSites...)
	switch {
	case containsAny(text, "no metastasis", "no distant metastasis", "no evidence of metastatic disease"):
		return "M0"
	case containsAny(text, "pleural nodules", "pleural effusion", "pericardial effusion"),
		strings.Contains(text, "separate tumor nodule") && strings.Contains(text, "contralateral"):
		return "M1a"
	case strings.Contains(text, "single") && containsAny(text, "metastasis", "metastatic lesion") && site:
		return "M1b"
	case strings.Contains(text, "multiple") && containsAny(text, "metastases", "metastatic lesions") && site:
		return "M1c"
	case containsAny(text, "metasta") && site:
		return "M1"
	}
	return "M0"
}

func stageSCLC(text string) StagingResult {
	limited := countTerms(text, limitedTerms)
	extensive := countTerms(text, extensiveTerms)

	result := StagingResult{TNM: tnmNotApplicable}
	switch {
	case extensive > limited:
		result.Stage, result.Confidence = StageExtensive, scoreConfidence(extensive)
	case limited > extensive:
		result.Stage, result.Confidence = StageLimited, scoreConfidence(limited)
	case containsAny(text, spreadTerms...):
		result.Stage, result.Confidence = StageExtensive, 0.7
	case limited > 0:
		result.Stage, result.Confidence = StageLimited, scoreConfidence(limited)
	default:
		result.Stage, result.Confidence = StageUnknownSCLC, 0.3
	}

	switch result.Stage {
	case StageExtensive:
		result.Description = "Cancer has spread beyond one lung or to distant parts of the body"
	case StageLimited:
		result.Description = "Cancer is confined to one lung and regional lymph nodes"
	default:
		result.Description = "Insufficient information to determine SCLC stage"
	}
	return result
}

func scoreConfidence(score int) float64 {
	if score > 1 {
		return 0.8
	}
	return 0.6
}
