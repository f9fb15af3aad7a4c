package redis_repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/medconsensus/tools/web_search/models"
)

const searchKeyPrefix = "search:"

// SearchCache stores search results as JSON under the "search:" prefix.
type SearchCache struct {
	client *redis.Client
}

func NewSearchCache(client *redis.Client) *SearchCache {
	return &SearchCache{client: client}
}

func (s *SearchCache) Get(ctx context.Context, key string) ([]models.Result, bool, error) {
	val, err := s.client.Get(ctx, searchKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get search cache: %w", err)
	}
	var results []models.Result
	if err := json.Unmarshal(val, &results); err != nil {
		return nil, false, fmt.Errorf("decode search cache: %w", err)
	}
	return results, true, nil
}

// Set stores results; a zero ttl keeps the entry until evicted.
func (s *SearchCache) Set(ctx context.Context, key string, results []models.Result, ttl time.Duration) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, searchKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set search cache: %w", err)
	}
	return nil
}
