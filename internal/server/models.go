package server

import (
	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
	"github.com/mohammad-safakhou/medconsensus/internal/report"
	"github.com/mohammad-safakhou/medconsensus/internal/trialindex"
)

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// DiagnosisRequest starts a consensus run.
type DiagnosisRequest struct {
	Topic          string `json:"topic"`
	Symptoms       string `json:"symptoms"`
	MedicalHistory string `json:"medical_history"`
	TestResults    string `json:"test_results"`
	Language       string `json:"language"`
	MaxRounds      int    `json:"max_rounds"`
}

// DiagnosisResponse carries the assembled report of a finished run.
type DiagnosisResponse struct {
	RunID    string        `json:"run_id"`
	FileName string        `json:"file_name"`
	Report   report.Report `json:"report"`
	Markdown string        `json:"markdown"`
}

// AnalyzeRequest runs the rule-based lung cancer analysis only. Explicit
// patient factors override the ones read from the text.
type AnalyzeRequest struct {
	Text              string   `json:"text"`
	MedicalHistory    string   `json:"medical_history"`
	TestResults       string   `json:"test_results"`
	Age               *int     `json:"age"`
	Gender            string   `json:"gender"`
	PerformanceStatus *int     `json:"performance_status"`
	WeightLoss        *bool    `json:"weight_loss"`
	Comorbidities     []string `json:"comorbidities"`
	MetastasisSites   []string `json:"metastasis_sites"`
	BrainMetastases   *bool    `json:"brain_metastases"`
	PDL1              string   `json:"pd_l1"`
	PriorTreatment    string   `json:"prior_treatment"`
}

// AnalyzeResponse wraps the analysis with its plain-text summary.
type AnalyzeResponse struct {
	Analysis oncology.Analysis `json:"analysis"`
	Summary  string            `json:"summary"`
}

// TrialsResponse lists trials, with search hits when a query was given.
type TrialsResponse struct {
	Count  int              `json:"count"`
	Trials []oncology.Trial `json:"trials"`
	Hits   []trialindex.Hit `json:"hits,omitempty"`
}

// LanguagesResponse lists the report translation targets.
type LanguagesResponse struct {
	Languages []report.Language `json:"languages"`
}
