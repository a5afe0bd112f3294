package verification

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"veridoc/internal/platform/redis"
)

// CachedStore layers a Redis read-through cache over another store.
// Verifications are immutable after Save, so cached reads can never be stale;
// the TTL only bounds memory. Cache failures degrade to the backing store.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(id string) string {
	return "veridoc:verification:" + id
}

func (s *CachedStore) Save(ctx context.Context, v Verification) error {
	if err := s.inner.Save(ctx, v); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		if err := s.client.Set(ctx, cacheKey(v.ID), data, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "verification cache set failed", "id", v.ID, "error", err)
		}
	}
	return nil
}

func (s *CachedStore) FindByID(ctx context.Context, id string) (Verification, error) {
	data, err := s.client.Get(ctx, cacheKey(id)).Bytes()
	if err == nil {
		var v Verification
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		// A corrupt cache entry falls through to the backing store.
	} else if err != goredis.Nil {
		s.logger.WarnContext(ctx, "verification cache get failed", "id", id, "error", err)
	}

	v, err := s.inner.FindByID(ctx, id)
	if err != nil {
		return Verification{}, err
	}
	if data, err := json.Marshal(v); err == nil {
		if err := s.client.Set(ctx, cacheKey(id), data, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "verification cache set failed", "id", id, "error", err)
		}
	}
	return v, nil
}

// List always hits the backing store; listings are not cached.
func (s *CachedStore) List(ctx context.Context, customerID string) ([]Verification, error) {
	return s.inner.List(ctx, customerID)
}
