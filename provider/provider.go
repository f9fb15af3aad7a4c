package provider

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/config"
	openai_provider "github.com/mohammad-safakhou/medconsensus/provider/openai"
	"github.com/mohammad-safakhou/medconsensus/provider/prompt"
	"github.com/mohammad-safakhou/medconsensus/provider/simulated"
)

// Client names a completion backend.
type Client string

const (
	Auto           Client = "auto"
	OpenAI         Client = "openai"
	IOIntelligence Client = "iointelligence"
	Simulated      Client = "simulated"
)

const (
	defaultOpenAIBaseURL         = "https://api.openai.com/v1"
	defaultOpenAIModel           = "gpt-3.5-turbo"
	defaultIOIntelligenceBaseURL = "https://api.intelligence.io.solutions/api/v1/"
	defaultIOIntelligenceModel   = "deepseek-ai/DeepSeek-R1-0528"
)

// Prompt is re-exported so callers only import this package.
type Prompt = prompt.Prompt

// TextCompleter is the interface that all completion backends must satisfy.
// The prompt's {name} placeholders are filled from vars.
type TextCompleter interface {
	Complete(ctx context.Context, p Prompt, vars map[string]string) (string, error)
}

// ErrMissingAPIKey is returned when a provider is selected explicitly but has no key.
type ErrMissingAPIKey struct {
	Provider Client
	EnvVar   string
}

func (e ErrMissingAPIKey) Error() string {
	return fmt.Sprintf("%s provider selected but %s is not set", e.Provider, e.EnvVar)
}

// Resolve picks the backend for cfg, applying the auto-detection order
// openai, iointelligence, simulated.
func Resolve(cfg config.LLMConfig) Client {
	switch Client(strings.ToLower(strings.TrimSpace(cfg.Provider))) {
	case OpenAI:
		return OpenAI
	case IOIntelligence:
		return IOIntelligence
	case Simulated:
		return Simulated
	}
	if openAIKey(cfg) != "" {
		return OpenAI
	}
	if ioKey(cfg) != "" {
		return IOIntelligence
	}
	return Simulated
}

// New creates a completion client based on the provided configuration.
func New(cfg config.LLMConfig, logger *zap.Logger) (TextCompleter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("provider")
	client := Resolve(cfg)
	switch client {
	case OpenAI:
		key := openAIKey(cfg)
		if key == "" {
			return nil, ErrMissingAPIKey{Provider: OpenAI, EnvVar: "OPENAI_API_KEY"}
		}
		model := firstNonEmpty(cfg.Model, cfg.OpenAIModel, defaultOpenAIModel)
		logger.Info("using completion provider", zap.String("provider", string(client)), zap.String("model", model))
		return openai_provider.NewClient(openai_provider.Options{
			APIKey:      key,
			BaseURL:     firstNonEmpty(cfg.BaseURL, defaultOpenAIBaseURL),
			Model:       model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
			Retries:     cfg.MaxRetries,
		}), nil
	case IOIntelligence:
		key := ioKey(cfg)
		if key == "" {
			return nil, ErrMissingAPIKey{Provider: IOIntelligence, EnvVar: "IOINTELLIGENCE_API_KEY"}
		}
		model := firstNonEmpty(cfg.Model, defaultIOIntelligenceModel)
		logger.Info("using completion provider", zap.String("provider", string(client)), zap.String("model", model))
		return openai_provider.NewClient(openai_provider.Options{
			APIKey:      key,
			BaseURL:     firstNonEmpty(cfg.BaseURL, cfg.IOIntelligenceURL, defaultIOIntelligenceBaseURL),
			Model:       model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
			Retries:     cfg.MaxRetries,
		}), nil
	default:
		logger.Warn("no completion API key configured, using simulated provider")
		return simulated.New(), nil
	}
}

func openAIKey(cfg config.LLMConfig) string {
	if strings.EqualFold(cfg.Provider, string(OpenAI)) && cfg.APIKey != "" {
		return cfg.APIKey
	}
	return cfg.OpenAIAPIKey
}

func ioKey(cfg config.LLMConfig) string {
	if strings.EqualFold(cfg.Provider, string(IOIntelligence)) && cfg.APIKey != "" {
		return cfg.APIKey
	}
	return cfg.IOIntelligenceAPIKey
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
