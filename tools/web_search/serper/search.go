package serper

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mohammad-safakhou/medconsensus/internal/httpclient"
	"github.com/mohammad-safakhou/medconsensus/tools/web_search/models"
)

const defaultEndpoint = "https://google.serper.dev/search"

type Search struct {
	APIKey   string
	Endpoint string
	HTTP     *httpclient.Client
}

type request struct {
	Q   string `json:"q"`
	GL  string `json:"gl"`
	HL  string `json:"hl"`
	Num int    `json:"num"`
}

type response struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (s Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	// https://serper.dev/ docs
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	client := s.HTTP
	if client == nil {
		client = httpclient.New(0, 0, 0)
	}
	var raw response
	headers := map[string]string{"X-API-KEY": s.APIKey}
	if err := client.DoJSON(ctx, http.MethodPost, endpoint, headers, request{Q: q, GL: "us", HL: "en", Num: k}, &raw); err != nil {
		return nil, fmt.Errorf("serper search: %w", err)
	}
	out := make([]models.Result, 0, len(raw.Organic))
	for i, it := range raw.Organic {
		if i >= k {
			break
		}
		out = append(out, models.Result{Title: it.Title, Link: it.Link, Snippet: it.Snippet})
	}
	return out, nil
}
