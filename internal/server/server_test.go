package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
	"github.com/mohammad-safakhou/medconsensus/internal/report"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
	"github.com/mohammad-safakhou/medconsensus/provider/simulated"
)

type runnerStub struct {
	got   workflow.State
	final func(workflow.State) workflow.State
	err   error
}

func (r *runnerStub) Run(ctx context.Context, initial workflow.State) (workflow.State, error) {
	r.got = initial
	if r.err != nil {
		return workflow.State{}, r.err
	}
	if r.final != nil {
		return r.final(initial), nil
	}
	out := initial
	out.RunID = "run-42"
	out.Consensus = "CONSENSUS DIAGNOSIS: tension headache"
	out.Next = workflow.StepEnd
	return out, nil
}

var fixedNow = time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, runner Runner, secret string) *Server {
	t.Helper()
	s, err := New(Options{
		Runner:     runner,
		Translator: report.LLMTranslator{Completer: simulated.New()},
		Gatherer:   prometheus.NewRegistry(),
		JWTSecret:  secret,
		MaxRounds:  2,
		Now:        func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func do(t *testing.T, s *Server, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestNewRequiresRunner(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without runner")
	}
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(t, &runnerStub{}, ""), http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestCreateDiagnosis(t *testing.T) {
	runner := &runnerStub{}
	s := newTestServer(t, runner, "")

	rec := do(t, s, http.MethodPost, "/api/diagnoses", `{"topic":" headache ","symptoms":"pressure"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if runner.got.Topic != "headache" || runner.got.MaxRounds != 2 || runner.got.MedicalHistory != workflow.DefaultMedicalHistory {
		t.Fatalf("unexpected initial state: %+v", runner.got)
	}
	resp := decode[DiagnosisResponse](t, rec)
	if resp.RunID != "run-42" {
		t.Fatalf("run id = %q", resp.RunID)
	}
	if resp.FileName != "medical_diagnosis_20240501_083000.md" {
		t.Fatalf("file name = %q", resp.FileName)
	}
	if resp.Report.Diagnoses != report.NoDiagnoses {
		t.Fatalf("diagnoses placeholder missing: %q", resp.Report.Diagnoses)
	}
	if !strings.HasPrefix(resp.Markdown, "# Medical Diagnosis Report: headache") {
		t.Fatalf("markdown = %q", resp.Markdown)
	}
}

func TestCreateDiagnosisTranslates(t *testing.T) {
	s := newTestServer(t, &runnerStub{}, "")
	rec := do(t, s, http.MethodPost, "/api/diagnoses", `{"topic":"headache","language":"Spanish","max_rounds":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[DiagnosisResponse](t, rec)
	if resp.Report.Translation == nil || resp.Report.Translation.TargetLanguage != "Spanish" {
		t.Fatalf("translation info = %+v", resp.Report.Translation)
	}
	if !resp.Report.Translation.TranslatedAt.Equal(fixedNow) {
		t.Fatalf("translated at = %v", resp.Report.Translation.TranslatedAt)
	}
}

func TestCreateDiagnosisValidation(t *testing.T) {
	s := newTestServer(t, &runnerStub{}, "")
	cases := map[string]string{
		"missing topic":   `{"symptoms":"cough"}`,
		"negative rounds": `{"topic":"flu","max_rounds":-1}`,
		"bad language":    `{"topic":"flu","language":"klingon"}`,
		"bad json":        `{"topic":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/diagnoses", body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			if decode[HTTPError](t, rec).Error == "" {
				t.Fatalf("missing error message")
			}
		})
	}
}

func TestCreateDiagnosisRunFailure(t *testing.T) {
	runner := &runnerStub{err: &workflow.ConfigurationError{Step: "summarize", Reason: "no step registered"}}
	rec := do(t, newTestServer(t, runner, ""), http.MethodPost, "/api/diagnoses", `{"topic":"flu"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(decode[HTTPError](t, rec).Error, "workflow misconfigured") {
		t.Fatalf("body = %s", rec.Body.String())
	}

	runner.err = errors.New("boom")
	rec = do(t, newTestServer(t, runner, ""), http.MethodPost, "/api/diagnoses", `{"topic":"flu"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTrialsByCriteria(t *testing.T) {
	s := newTestServer(t, &runnerStub{}, "")
	q := url.Values{"type": {oncology.TypeSCLC}, "stage": {oncology.StageExtensive}, "ps": {"2"}}
	rec := do(t, s, http.MethodGet, "/api/trials?"+q.Encode(), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[TrialsResponse](t, rec)
	if resp.Count != 1 || resp.Trials[0].ID != "NCT03976375" {
		t.Fatalf("trials = %+v", resp.Trials)
	}

	rec = do(t, s, http.MethodGet, "/api/trials?ps=nine", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTrialsFullText(t *testing.T) {
	s := newTestServer(t, &runnerStub{}, "")
	rec := do(t, s, http.MethodGet, "/api/trials?q=sotorasib", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[TrialsResponse](t, rec)
	if resp.Count == 0 || resp.Trials[0].ID != "NCT04585815" || len(resp.Hits) != resp.Count {
		t.Fatalf("unexpected search response: %+v", resp)
	}

	if rec := do(t, s, http.MethodGet, "/api/trials?q=egfr&limit=0", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("limit=0 status = %d", rec.Code)
	}
}

func TestGetTrial(t *testing.T) {
	s := newTestServer(t, &runnerStub{}, "")
	rec := do(t, s, http.MethodGet, "/api/trials/nct04640272", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[oncology.Trial](t, rec); got.ID != "NCT04640272" {
		t.Fatalf("id = %q", got.ID)
	}
	if rec := do(t, s, http.MethodGet, "/api/trials/NCT00000000", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing trial status = %d", rec.Code)
	}
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, &runnerStub{}, "")
	body := `{"text":"lung cancer, biopsy confirmed adenocarcinoma","test_results":"T2a N1 M0","age":45,"gender":"female","performance_status":0}`
	rec := do(t, s, http.MethodPost, "/api/analyze", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[AnalyzeResponse](t, rec)
	if resp.Analysis.Staging.Stage != "IIB" || resp.Analysis.Profile.MainType != oncology.TypeNSCLC {
		t.Fatalf("analysis = %+v", resp.Analysis.Staging)
	}
	if resp.Analysis.Patient.Age == nil || *resp.Analysis.Patient.Age != 45 {
		t.Fatalf("age override lost: %+v", resp.Analysis.Patient)
	}
	if !strings.Contains(resp.Summary, "Stage: IIB") {
		t.Fatalf("summary = %q", resp.Summary)
	}

	if rec := do(t, s, http.MethodPost, "/api/analyze", `{"text":""}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty text status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/analyze", `{"text":"nsclc","performance_status":7}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad ps status = %d", rec.Code)
	}
}

func TestLanguages(t *testing.T) {
	rec := do(t, newTestServer(t, &runnerStub{}, ""), http.MethodGet, "/api/languages", "", nil)
	if got := decode[LanguagesResponse](t, rec); len(got.Languages) != 36 {
		t.Fatalf("languages = %d", len(got.Languages))
	}
}

func TestAuth(t *testing.T) {
	secret := "test-secret"
	s := newTestServer(t, &runnerStub{}, secret)

	if rec := do(t, s, http.MethodGet, "/api/languages", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", rec.Code)
	}
	bad := http.Header{"Authorization": {"Bearer not-a-jwt"}}
	if rec := do(t, s, http.MethodGet, "/api/languages", "", bad); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", rec.Code)
	}
	wrong, err := SignToken("clinician", []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	if rec := do(t, s, http.MethodGet, "/api/languages", "", http.Header{"Authorization": {"Bearer " + wrong}}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret status = %d", rec.Code)
	}
	expired, err := SignToken("clinician", []byte(secret), -time.Minute)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	if rec := do(t, s, http.MethodGet, "/api/languages", "", http.Header{"Authorization": {"Bearer " + expired}}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token status = %d", rec.Code)
	}

	token, err := SignToken("clinician", []byte(secret), time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	if rec := do(t, s, http.MethodGet, "/api/languages", "", http.Header{"Authorization": {"Bearer " + token}}); rec.Code != http.StatusOK {
		t.Fatalf("valid token status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz should stay public, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "medconsensus_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	s, err := New(Options{Runner: &runnerStub{}, Gatherer: reg})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := do(t, s, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "medconsensus_test_total 1") {
		t.Fatalf("metrics = %d %s", rec.Code, rec.Body.String())
	}
}
