package openai_provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/medconsensus/internal/httpclient"
	"github.com/mohammad-safakhou/medconsensus/provider/prompt"
)

// Options configure an OpenAI-compatible chat completions client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Retries     int
}

// Client talks to any OpenAI-compatible /chat/completions endpoint.
type Client struct {
	opts Options
	http *httpclient.Client
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Client{
		opts: opts,
		http: httpclient.New(opts.Timeout, opts.Retries, 500*time.Millisecond),
	}
}

func (c *Client) endpoint() string {
	return strings.TrimRight(c.opts.BaseURL, "/") + "/chat/completions"
}

// Complete renders p with vars and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, p prompt.Prompt, vars map[string]string) (string, error) {
	system, user := p.Messages(vars)
	req := request{
		Model: c.opts.Model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.opts.APIKey}

	var resp response
	if err := c.http.DoJSON(ctx, http.MethodPost, c.endpoint(), headers, req, &resp); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
