package openai_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohammad-safakhou/medconsensus/provider/prompt"
)

func TestCompleteSendsRenderedMessages(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"<think>hmm</think>Answer"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Model: "gpt-test", Timeout: time.Second})
	p := prompt.Prompt{System: "You help with {topic}.", User: "Symptoms: {symptoms}"}
	out, err := c.Complete(context.Background(), p, map[string]string{"topic": "asthma", "symptoms": "wheezing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "<think>hmm</think>Answer" {
		t.Fatalf("unexpected content %q", out)
	}
	if got.Model != "gpt-test" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Messages[0].Content != "You help with asthma." || got.Messages[1].Content != "Symptoms: wheezing" {
		t.Fatalf("placeholders not rendered: %+v", got.Messages)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", BaseURL: srv.URL, Model: "m", Timeout: time.Second})
	if _, err := c.Complete(context.Background(), prompt.Prompt{System: "s"}, nil); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
