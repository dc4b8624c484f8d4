package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/redisclient"
	"github.com/geocoder89/userhub/internal/utils"
	"github.com/redis/go-redis/v9"
)

// Users caches outward user representations by id. Implementations never
// fail a request: backend errors are logged and read as a miss.
type Users interface {
	Get(ctx context.Context, id string) (user.DTO, bool)
	Set(ctx context.Context, dto user.DTO)
	Invalidate(ctx context.Context, id string)
}

type MemoryUsers struct {
	c *Cache[user.DTO]
}

func NewMemoryUsers(ttl time.Duration) *MemoryUsers {
	return &MemoryUsers{c: New[user.DTO](ttl)}
}

func (m *MemoryUsers) Get(_ context.Context, id string) (user.DTO, bool) {
	return m.c.Get(utils.BuildUserCacheKey(id))
}

func (m *MemoryUsers) Set(_ context.Context, dto user.DTO) {
	m.c.Set(utils.BuildUserCacheKey(dto.ID), dto)
}

func (m *MemoryUsers) Invalidate(_ context.Context, id string) {
	m.c.Delete(utils.BuildUserCacheKey(id))
}

type RedisUsers struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisUsers(client *redisclient.Client, ttl time.Duration) *RedisUsers {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisUsers{rdb: client.Raw(), ttl: ttl}
}

func (r *RedisUsers) Get(ctx context.Context, id string) (user.DTO, bool) {
	raw, err := r.rdb.Get(ctx, utils.BuildUserCacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Default().WarnContext(ctx, "user_cache_get_failed", "err", err)
		}
		return user.DTO{}, false
	}

	var dto user.DTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		slog.Default().WarnContext(ctx, "user_cache_decode_failed", "err", err)
		return user.DTO{}, false
	}

	return dto, true
}

func (r *RedisUsers) Set(ctx context.Context, dto user.DTO) {
	dto.Password = ""

	raw, err := json.Marshal(dto)
	if err != nil {
		return
	}

	if err := r.rdb.Set(ctx, utils.BuildUserCacheKey(dto.ID), raw, r.ttl).Err(); err != nil {
		slog.Default().WarnContext(ctx, "user_cache_set_failed", "err", err)
	}
}

func (r *RedisUsers) Invalidate(ctx context.Context, id string) {
	if err := r.rdb.Del(ctx, utils.BuildUserCacheKey(id)).Err(); err != nil {
		slog.Default().WarnContext(ctx, "user_cache_invalidate_failed", "err", err)
	}
}
