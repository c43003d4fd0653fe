package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lightwaver/gallerix/config"
	"github.com/lightwaver/gallerix/internal/util"
	"github.com/redis/go-redis/v9"
)

// CacheRepository keeps raw config documents in redis for a short TTL.
type CacheRepository struct {
	client *config.RedisClient
	ttl    time.Duration
}

func NewCacheRepository(rdb *config.RedisClient, ttl time.Duration) *CacheRepository {
	return &CacheRepository{rdb, ttl}
}

func (r *CacheRepository) SetDocument(ctx context.Context, name string, data []byte) error {
	cmd := r.client.Client.Set(ctx, r.key(name), data, r.ttl)
	if err := cmd.Err(); err != nil {
		return util.LogError("[CacheRepo] set document", err)
	}
	if cmd.Val() != "OK" {
		return fmt.Errorf("[CacheRepo] unexpected redis reply: %s", cmd.Val())
	}
	return nil
}

// GetDocument reports a miss as (nil, false, nil).
func (r *CacheRepository) GetDocument(ctx context.Context, name string) ([]byte, bool, error) {
	val, err := r.client.Client.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, util.LogError("[CacheRepo] get document", err)
	}
	return val, true, nil
}

func (r *CacheRepository) DeleteDocument(ctx context.Context, name string) error {
	if err := r.client.Client.Del(ctx, r.key(name)).Err(); err != nil {
		return util.LogError("[CacheRepo] delete document", err)
	}
	return nil
}

func (r *CacheRepository) key(name string) string {
	return fmt.Sprintf("gallerix:config:%s", name)
}
