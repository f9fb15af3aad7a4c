package agents

import (
	"context"
	"errors"
	"sync"

	"github.com/mohammad-safakhou/medconsensus/provider"
	fetchmodels "github.com/mohammad-safakhou/medconsensus/tools/web_fetch/models"
	"github.com/mohammad-safakhou/medconsensus/tools/web_search/models"
)

type searchCall struct {
	query   string
	n       int
	trusted bool
}

type fakeSearcher struct {
	mu       sync.Mutex
	calls    []searchCall
	results  map[string][]models.Result
	fallback []models.Result
	err      error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, n int, trusted bool) ([]models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, searchCall{query, n, trusted})
	if f.err != nil {
		return nil, f.err
	}
	if res, ok := f.results[query]; ok {
		return res, nil
	}
	return f.fallback, nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	urls  []string
}

func (f *fakeFetcher) Exec(ctx context.Context, url string) (fetchmodels.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	text, ok := f.pages[url]
	if !ok {
		return fetchmodels.Page{}, errors.New("fetch failed")
	}
	return fetchmodels.Page{URL: url, Text: text}, nil
}

type fakeCompleter struct {
	reply  string
	err    error
	prompt provider.Prompt
	vars   map[string]string
}

func (f *fakeCompleter) Complete(ctx context.Context, p provider.Prompt, vars map[string]string) (string, error) {
	f.prompt = p
	f.vars = vars
	return f.reply, f.err
}
