// Package simulated provides an offline completion backend used when no API
// key is configured.
package simulated

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/medconsensus/internal/helpers"
	"github.com/mohammad-safakhou/medconsensus/provider/prompt"
)

type Client struct{}

func New() *Client { return &Client{} }

// Complete returns deterministic text derived from the prompt role and vars.
func (c *Client) Complete(ctx context.Context, p prompt.Prompt, vars map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Name == "translation" {
		return vars["text"], nil
	}
	return fmt.Sprintf("This is a simulated response for: %s...\n\nIn production, this would be a real AI response from a language model.",
		helpers.Truncate(query(p.Name, vars), 50)), nil
}

func query(name string, vars map[string]string) string {
	topic := strings.TrimSpace(vars["topic"])
	switch name {
	case "diagnosis":
		return fmt.Sprintf("Diagnosis for %s with symptoms: %s", topic, vars["symptoms"])
	case "treatment":
		return fmt.Sprintf("Treatment for %s", topic)
	case "consensus":
		return fmt.Sprintf("Consensus for %s", topic)
	}
	if topic != "" {
		return topic
	}
	return "Unknown query"
}
