// Package trialindex provides BM25 full-text search over the clinical trial
// catalog.
package trialindex

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
)

// document is the flattened form of a trial that gets indexed.
type document struct {
	Title          string `json:"title"`
	Conditions     string `json:"conditions"`
	Interventions  string `json:"interventions"`
	Stages         string `json:"stages"`
	Markers        string `json:"markers"`
	PriorTreatment string `json:"prior_treatment"`
	Phase          string `json:"phase"`
	Status         string `json:"status"`
}

type Hit struct {
	Trial oncology.Trial `json:"trial"`
	Score float64        `json:"score"`
	Rank  int            `json:"rank"`
}

// Index is an in-memory bleve index over a fixed trial catalog.
type Index struct {
	mu     sync.RWMutex
	bleve  bleve.Index
	trials map[string]oncology.Trial
}

// Build indexes every trial of the catalog.
func Build(catalog []oncology.Trial) (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create trial index: %w", err)
	}
	ix := &Index{bleve: idx, trials: make(map[string]oncology.Trial, len(catalog))}
	batch := idx.NewBatch()
	for _, t := range catalog {
		ix.trials[t.ID] = t
		if err := batch.Index(t.ID, toDocument(t)); err != nil {
			return nil, fmt.Errorf("index trial %s: %w", t.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("index trials: %w", err)
	}
	return ix, nil
}

func toDocument(t oncology.Trial) document {
	return document{
		Title:          t.Title,
		Conditions:     strings.Join(t.Conditions, " "),
		Interventions:  strings.Join(t.Interventions, " "),
		Stages:         strings.Join(t.Eligibility.Stage, " "),
		Markers:        strings.Join(t.Eligibility.Markers, " "),
		PriorTreatment: t.Eligibility.PriorTreatment,
		Phase:          t.Phase,
		Status:         t.Status,
	}
}

// Search runs a query-string query ("egfr osimertinib", "+conditions:small
// -status:active") and returns at most limit hits ordered by score.
func (ix *Index) Search(q string, limit int) ([]Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, limit, 0, false)

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	res, err := ix.bleve.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search trials %q: %w", q, err)
	}
	out := make([]Hit, 0, len(res.Hits))
	for i, h := range res.Hits {
		t, ok := ix.trials[h.ID]
		if !ok {
			continue
		}
		out = append(out, Hit{Trial: t, Score: h.Score, Rank: i + 1})
	}
	return out, nil
}

// Len reports the number of indexed trials.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.trials)
}

func (ix *Index) Close() error {
	return ix.bleve.Close()
}
