package report

import (
	"sort"
	"strings"
)

// SupportedLanguages maps language codes to display names.
var SupportedLanguages = map[string]string{
	"arabic":     "Arabic",
	"bengali":    "Bengali",
	"bulgarian":  "Bulgarian",
	"chinese":    "Chinese (Simplified)",
	"czech":      "Czech",
	"danish":     "Danish",
	"dutch":      "Dutch",
	"finnish":    "Finnish",
	"french":     "French",
	"german":     "German",
	"greek":      "Greek",
	"gujarati":   "Gujarati",
	"hebrew":     "Hebrew",
	"hindi":      "Hindi",
	"hungarian":  "Hungarian",
	"italian":    "Italian",
	"japanese":   "Japanese",
	"kannada":    "Kannada",
	"korean":     "Korean",
	"malayalam":  "Malayalam",
	"marathi":    "Marathi",
	"norwegian":  "Norwegian",
	"persian":    "Persian",
	"polish":     "Polish",
	"portuguese": "Portuguese",
	"punjabi":    "Punjabi",
	"romanian":   "Romanian",
	"russian":    "Russian",
	"spanish":    "Spanish",
	"swedish":    "Swedish",
	"tamil":      "Tamil",
	"telugu":     "Telugu",
	"thai":       "Thai",
	"turkish":    "Turkish",
	"urdu":       "Urdu",
	"vietnamese": "Vietnamese",
}

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages lists the supported languages ordered by code.
func Languages() []Language {
	out := make([]Language, 0, len(SupportedLanguages))
	for code, name := range SupportedLanguages {
		out = append(out, Language{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// LookupLanguage resolves a code or display name, ignoring case.
func LookupLanguage(s string) (Language, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if name, ok := SupportedLanguages[key]; ok {
		return Language{Code: key, Name: name}, true
	}
	for code, name := range SupportedLanguages {
		if strings.ToLower(name) == key {
			return Language{Code: code, Name: name}, true
		}
	}
	return Language{}, false
}
