package prompt

import "testing"

func TestRender(t *testing.T) {
	vars := map[string]string{"topic": "lung cancer", "symptoms": "cough {not_a_var}"}
	got := Render("Topic: {topic}\nSymptoms: {symptoms}\nMissing: {history}", vars)
	want := "Topic: lung cancer\nSymptoms: cough {not_a_var}\nMissing: {history}"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestMessages(t *testing.T) {
	p := Prompt{Name: "diagnosis", System: "You diagnose {topic}.", User: "Symptoms: {symptoms}"}
	system, user := p.Messages(map[string]string{"topic": "flu", "symptoms": "fever"})
	if system != "You diagnose flu." || user != "Symptoms: fever" {
		t.Fatalf("unexpected messages %q / %q", system, user)
	}
}
