// Package web_fetch loads the pages behind search results and extracts their
// readable text.
package web_fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/medconsensus/config"
	"github.com/mohammad-safakhou/medconsensus/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/medconsensus/tools/web_fetch/httpfetch"
	"github.com/mohammad-safakhou/medconsensus/tools/web_fetch/models"
)

const (
	DefaultTimeout  = 15 * time.Second
	MaxCharsDefault = 1500
)

type WebFetcher interface {
	Exec(ctx context.Context, url string) (models.Page, error)
}

type FetcherType string

const (
	HTTPFetcherType     FetcherType = "http"
	ChromedpFetcherType FetcherType = "chromedp"
)

var ErrUnsupportedFetcher = errors.New("unsupported fetcher")

// NewWebFetcher builds the fetcher named in cfg. Zero timeout and size
// limits fall back to the defaults.
func NewWebFetcher(cfg config.WebFetchConfig) (WebFetcher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}

	switch FetcherType(cfg.Fetcher) {
	case HTTPFetcherType, "":
		return httpfetch.Fetch{Timeout: timeout, MaxChars: maxChars}, nil
	case ChromedpFetcherType:
		return chromedp.Fetch{Timeout: timeout, MaxChars: maxChars}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFetcher, cfg.Fetcher)
}
