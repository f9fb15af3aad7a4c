package oncology

import (
	"regexp"
	"strings"
	"sync"
)

var (
	wordMu    sync.Mutex
	wordCache = map[string]*regexp.Regexp{}
)

// hasWord reports whether word occurs in text on word boundaries. Both
// arguments are expected in lower case.
func hasWord(text, word string) bool {
	wordMu.Lock()
	re, ok := wordCache[word]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
		wordCache[word] = re
	}
	wordMu.Unlock()
	return re.MatchString(text)
}

const genomicQualifiers = `exon|gene|mutations?|mutated|mutant|fusions?|rearrange\w*|amplifi\w*|alterations?|altered|positive|negative|testing|inhibitors?|overexpression`

// hasQualifiedWord reports whether word occurs in text directly followed by
// a genomic qualifier, as in "met amplification" or "ret+".
func hasQualifiedWord(text, word string) bool {
	key := "qualified:" + word
	wordMu.Lock()
	re, ok := wordCache[key]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `(?:\s+(?:` + genomicQualifiers + `)\b|\+|-(?:positive|rearranged|mutant)\b)`)
		wordCache[key] = re
	}
	wordMu.Unlock()
	return re.MatchString(text)
}

func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func countTerms(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			n++
		}
	}
	return n
}

// IsSCLC reports whether mainType names small cell lung cancer. Plain
// substring checks would also match "Non-Small Cell" and "NSCLC".
func IsSCLC(mainType string) bool {
	lower := strings.ToLower(mainType)
	if strings.Contains(lower, "non-small") || strings.Contains(lower, "nsclc") {
		return false
	}
	return strings.Contains(lower, "small cell") || hasWord(lower, "sclc")
}

// normalizeStage upper-cases a stage label and drops a leading "STAGE".
func normalizeStage(stage string) string {
	s := strings.ToUpper(strings.TrimSpace(stage))
	s = strings.TrimPrefix(s, "STAGE ")
	return strings.TrimSpace(s)
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return append([]string(nil), in...)
}
