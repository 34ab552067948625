package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/slasia/smart-restaurant/internal/agent/model"
	"github.com/slasia/smart-restaurant/internal/agent/search"
	errx "github.com/slasia/smart-restaurant/internal/core/error"
	logx "github.com/slasia/smart-restaurant/pkg/logger"
)

// RedisSearchCache puts a Redis read-through cache in front of a Searcher.
// It stores web search results only; run state never reaches Redis.
// Cache failures are logged and the search falls through to the backend.
type RedisSearchCache struct {
	rdb  redis.Cmdable
	next search.Searcher
	ttl  time.Duration
}

func NewRedisSearchCache(rdb redis.Cmdable, next search.Searcher, ttl time.Duration) *RedisSearchCache {
	return &RedisSearchCache{rdb: rdb, next: next, ttl: ttl}
}

func (r *RedisSearchCache) searchKey(q search.Query) string {
	text := strings.Join(strings.Fields(strings.ToLower(q.Text)), " ")
	loc := strings.ToLower(strings.TrimSpace(q.Location))
	return fmt.Sprintf("search:%s:%d:%s", loc, q.Limit, text)
}

func (r *RedisSearchCache) Search(ctx context.Context, q search.Query) ([]model.SearchResult, error) {
	key := r.searchKey(q)

	cached, err := r.load(ctx, key)
	switch {
	case err == nil:
		logx.Ctx(ctx).Debug().Str("key", key).Int("results", len(cached)).Msg("search cache hit")
		return cached, nil
	case errors.Is(err, redis.Nil):
	default:
		logx.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("search cache read failed; querying backend")
	}

	results, err := r.next.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := r.store(ctx, key, results); err != nil {
		logx.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("search cache write failed")
	}
	return results, nil
}

func (r *RedisSearchCache) load(ctx context.Context, key string) ([]model.SearchResult, error) {
	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	var results []model.SearchResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, fmt.Errorf("unmarshal cached results: %w", err)
	}
	return results, nil
}

func (r *RedisSearchCache) store(ctx context.Context, key string, results []model.SearchResult) error {
	b, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

var _ search.Searcher = (*RedisSearchCache)(nil)
