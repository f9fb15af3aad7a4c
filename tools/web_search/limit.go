package web_search

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/mohammad-safakhou/medconsensus/tools/web_search/models"
)

type limited struct {
	next    Searcher
	limiter *rate.Limiter
}

// Limited throttles calls to next to perSecond requests with a burst of one.
func Limited(next Searcher, perSecond float64) Searcher {
	return &limited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (l *limited) Search(ctx context.Context, query string, n int, trusted bool) ([]models.Result, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limit: %w", err)
	}
	return l.next.Search(ctx, query, n, trusted)
}
