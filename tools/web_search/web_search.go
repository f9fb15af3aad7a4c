package web_search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/config"
	"github.com/mohammad-safakhou/medconsensus/internal/helpers"
	"github.com/mohammad-safakhou/medconsensus/internal/httpclient"
	"github.com/mohammad-safakhou/medconsensus/tools/web_search/brave"
	"github.com/mohammad-safakhou/medconsensus/tools/web_search/models"
	"github.com/mohammad-safakhou/medconsensus/tools/web_search/serper"
)

// Searcher returns up to n results for query. When trusted is set, results
// from trusted domains are ranked ahead of the rest.
type Searcher interface {
	Search(ctx context.Context, query string, n int, trusted bool) ([]models.Result, error)
}

// Backend is a raw search API.
type Backend interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

var (
	ErrUnsupportedProvider = &Error{"unsupported provider"}
	ErrMissingAPIKey       = &Error{"search api key not set"}
)

// NewBackend builds the raw API client for provider.
func NewBackend(provider Provider, apiKey string, client *httpclient.Client) (Backend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	switch provider {
	case SerperProvider, "":
		return serper.Search{APIKey: apiKey, HTTP: client}, nil
	case BraveProvider:
		return brave.Search{APIKey: apiKey, HTTP: client}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// NewSearcher assembles the configured backend with domain filtering, rate
// limiting and, when cache is non-nil, result caching.
func NewSearcher(cfg config.WebSearchConfig, cache Cache, logger *zap.Logger) (Searcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	backend, err := NewBackend(Provider(cfg.Provider), cfg.APIKey(), httpclient.New(timeout, 3, time.Second))
	if err != nil {
		return nil, fmt.Errorf("web search %q: %w", cfg.Provider, err)
	}
	trusted := cfg.TrustedDomains
	if len(trusted) == 0 {
		trusted = config.DefaultTrustedDomains
	}
	var s Searcher = &Filtered{Backend: backend, Trusted: trusted, Blocked: cfg.BlockedDomains}
	if cfg.RatePerSecond > 0 {
		s = Limited(s, cfg.RatePerSecond)
	}
	if cache != nil {
		s = Cached(s, cache, cfg.Cache.TTL, logger)
	}
	return s, nil
}

// Filtered over-fetches from the backend, drops blocked hosts and orders
// trusted hosts first.
type Filtered struct {
	Backend Backend
	Trusted []string
	Blocked []string
}

func (f *Filtered) Search(ctx context.Context, query string, n int, trusted bool) ([]models.Result, error) {
	if n <= 0 {
		return nil, nil
	}
	// Request more results to account for filtering.
	raw, err := f.Backend.Discover(ctx, query, n*2)
	if err != nil {
		return nil, err
	}
	candidates := make([]models.Result, 0, len(raw))
	for _, r := range raw {
		if matchesAny(r.Link, f.Blocked) {
			continue
		}
		candidates = append(candidates, models.Result{
			Title:   helpers.PlainText(r.Title),
			Snippet: helpers.PlainText(r.Snippet),
			Link:    strings.TrimSpace(r.Link),
		})
	}
	if !trusted {
		return limit(candidates, n), nil
	}
	out := make([]models.Result, 0, n)
	for _, r := range candidates {
		if matchesAny(r.Link, f.Trusted) {
			out = append(out, r)
		}
	}
	for _, r := range candidates {
		if len(out) >= n {
			break
		}
		if !matchesAny(r.Link, f.Trusted) {
			out = append(out, r)
		}
	}
	return limit(out, n), nil
}

func matchesAny(link string, domains []string) bool {
	host := helpers.Host(link)
	for _, d := range domains {
		if helpers.HostMatches(host, d) {
			return true
		}
	}
	return false
}

func limit(results []models.Result, n int) []models.Result {
	if len(results) > n {
		return results[:n]
	}
	return results
}
