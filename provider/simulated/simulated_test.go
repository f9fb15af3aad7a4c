package simulated

import (
	"context"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/medconsensus/provider/prompt"
)

func TestCompleteIsDeterministic(t *testing.T) {
	c := New()
	vars := map[string]string{"topic": "migraine", "symptoms": "headache"}
	a, err := c.Complete(context.Background(), prompt.Prompt{Name: "diagnosis"}, vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := c.Complete(context.Background(), prompt.Prompt{Name: "diagnosis"}, vars)
	if a != b {
		t.Fatalf("expected deterministic output")
	}
	if !strings.HasPrefix(a, "This is a simulated response for: Diagnosis for migraine with symptoms: headache") {
		t.Fatalf("unexpected output %q", a)
	}
}

func TestCompleteTranslationEchoesText(t *testing.T) {
	out, err := New().Complete(context.Background(), prompt.Prompt{Name: "translation"}, map[string]string{"text": "hello", "language": "French"})
	if err != nil || out != "hello" {
		t.Fatalf("unexpected translation %q (%v)", out, err)
	}
}

func TestCompleteHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Complete(ctx, prompt.Prompt{Name: "consensus"}, nil); err == nil {
		t.Fatalf("expected context error")
	}
}
