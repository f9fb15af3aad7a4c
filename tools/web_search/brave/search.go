package brave

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mohammad-safakhou/medconsensus/internal/httpclient"
	"github.com/mohammad-safakhou/medconsensus/tools/web_search/models"
)

const defaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave caps count at 20.
const maxCount = 20

type Search struct {
	APIKey   string
	Endpoint string
	HTTP     *httpclient.Client
}

func (s Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	// https://api.search.brave.com/app/documentation/web-search
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	client := s.HTTP
	if client == nil {
		client = httpclient.New(0, 0, 0)
	}
	count := k
	if count > maxCount {
		count = maxCount
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("count", strconv.Itoa(count))

	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	headers := map[string]string{"X-Subscription-Token": s.APIKey}
	if err := client.DoJSON(ctx, http.MethodGet, endpoint+"?"+params.Encode(), headers, nil, &raw); err != nil {
		return nil, fmt.Errorf("brave search: %w", err)
	}
	out := make([]models.Result, 0, len(raw.Web.Results))
	for i, r := range raw.Web.Results {
		if i >= k {
			break
		}
		out = append(out, models.Result{Title: r.Title, Link: r.URL, Snippet: r.Snippet})
	}
	return out, nil
}
