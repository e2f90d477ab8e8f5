package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"neurabuddy/internal/cache"
	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"

	"go.uber.org/zap"
)

// RedisBackend stores records as JSON fields of one hash per collection,
// next to a shared generation counter. Scoring is brute force over the hash
// contents.
type RedisBackend struct {
	cache      domain.Cache
	key        string
	generation string
}

func NewRedisBackend(c domain.Cache, collection string) *RedisBackend {
	return &RedisBackend{
		cache:      c,
		key:        cache.GenerateCacheKey("index", collection, "chunks"),
		generation: cache.GenerateCacheKey("index", collection, "generation"),
	}
}

// Put stores all records or none.
func (r *RedisBackend) Put(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	values := make(map[string]string, len(records))
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.ID, err)
		}
		values[rec.ID] = string(b)
	}
	if _, err := r.cache.HSetIncr(ctx, r.key, values, r.generation); err != nil {
		return fmt.Errorf("store %d records: %w", len(records), err)
	}
	return nil
}

func (r *RedisBackend) all(ctx context.Context) ([]Record, error) {
	raw, err := r.cache.HGetAll(ctx, r.key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load records: %w", err)
	}
	out := make([]Record, 0, len(raw))
	for id, v := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			logger.Get().Warn("Skipping undecodable index record", zap.String("id", id), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisBackend) Scan(ctx context.Context, filter domain.Filter) ([]Record, error) {
	records, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	out := records[:0]
	for _, rec := range records {
		if filter.Matches(rec.Fields) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *RedisBackend) DeleteWhere(ctx context.Context, key, value string) (int, error) {
	records, err := r.all(ctx)
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, rec := range records {
		if rec.Fields[key] == value {
			ids = append(ids, rec.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := r.cache.HDelIncr(ctx, r.key, r.generation, ids...)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return int(n), nil
}

func (r *RedisBackend) Count(ctx context.Context) (int, error) {
	n, err := r.cache.HLen(ctx, r.key)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return int(n), nil
}

func (r *RedisBackend) Generation(ctx context.Context) (int64, error) {
	raw, err := r.cache.Get(ctx, r.generation)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return 0, nil
		}
		return 0, fmt.Errorf("read generation: %w", err)
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse generation %q: %w", raw, err)
	}
	return gen, nil
}
