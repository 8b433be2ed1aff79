package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-review/internal/shared/telemetry"
	"resume-review/internal/shared/util"
)

const defaultCacheTTL = 10 * time.Minute

// CachedRepo adds a Redis read-through cache for single-record lookups.
// Records never change after creation, so entries are never invalidated.
type CachedRepo struct {
	Repo  Repo
	Cache redis.Cmdable
	TTL   time.Duration
}

// NewCachedRepo wraps repo with cache; ttl <= 0 means 10 minutes.
func NewCachedRepo(repo Repo, cache redis.Cmdable, ttl time.Duration) *CachedRepo {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedRepo{Repo: repo, Cache: cache, TTL: ttl}
}

// Create writes through to the underlying repo only.
func (r *CachedRepo) Create(ctx context.Context, upload ResumeUpload) error {
	return r.Repo.Create(ctx, upload)
}

// GetByIDForUser serves from cache when possible. Cache errors fall back to the repo.
func (r *CachedRepo) GetByIDForUser(ctx context.Context, userID, id string) (ResumeUpload, error) {
	key := cacheKey(userID, id)

	cached, err := r.Cache.Get(ctx, key).Result()
	switch {
	case err == nil:
		var upload ResumeUpload
		if jsonErr := json.Unmarshal([]byte(cached), &upload); jsonErr == nil {
			return upload, nil
		}
	case !errors.Is(err, redis.Nil):
		telemetry.Warn("review.cache_get_failed", map[string]any{"review_id": id, "error": err})
	}

	upload, err := r.Repo.GetByIDForUser(ctx, userID, id)
	if err != nil {
		return ResumeUpload{}, err
	}

	if payload, err := json.Marshal(upload); err == nil {
		if err := r.Cache.Set(ctx, key, string(payload), r.TTL).Err(); err != nil {
			telemetry.Warn("review.cache_set_failed", map[string]any{"review_id": id, "error": err})
		}
	}
	return upload, nil
}

// ListByUser bypasses the cache.
func (r *CachedRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	return r.Repo.ListByUser(ctx, userID, limit)
}

func cacheKey(userID, id string) string {
	return "review:" + util.OwnerKey(userID) + ":" + id
}

var _ Repo = (*CachedRepo)(nil)
