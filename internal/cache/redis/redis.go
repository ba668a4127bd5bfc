// Package redis caches family documents keyed by id and join token. The
// cache is advisory: every error degrades to a miss and is logged, never
// returned; the store stays the source of truth.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"family-calendar-go/internal/config"
	"family-calendar-go/internal/domain/family"
	"family-calendar-go/pkg/logger"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

func New(cfg config.CacheConfig, log logger.Logger) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{client: client, ttl: cfg.TTL, log: log}
}

func idKey(familyID string) string { return fmt.Sprintf("family:id:%s", familyID) }
func tokenKey(token string) string { return fmt.Sprintf("family:token:%s", token) }

func (c *Cache) GetByID(ctx context.Context, familyID string) (*family.Family, bool) {
	return c.get(ctx, idKey(familyID))
}

func (c *Cache) GetByToken(ctx context.Context, token string) (*family.Family, bool) {
	return c.get(ctx, tokenKey(token))
}

func (c *Cache) get(ctx context.Context, key string) (*family.Family, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache get failed", "key", key, "err", err)
		return nil, false
	}
	var fam family.Family
	if err := json.Unmarshal(raw, &fam); err != nil {
		c.log.Warn("cache entry corrupt", "key", key, "err", err)
		return nil, false
	}
	return &fam, true
}

func (c *Cache) Set(ctx context.Context, fam *family.Family, ttl time.Duration) {
	ttl = c.effectiveTTL(ttl)
	raw, err := json.Marshal(fam)
	if err != nil {
		return
	}
	pipe := c.client.Pipeline()
	pipe.Set(ctx, idKey(fam.ID), raw, ttl)
	if fam.Token != "" {
		pipe.Set(ctx, tokenKey(fam.Token), raw, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("cache set failed", "family_id", fam.ID, "err", err)
	}
}

func (c *Cache) Delete(ctx context.Context, fam *family.Family) {
	keys := []string{idKey(fam.ID)}
	if fam.Token != "" {
		keys = append(keys, tokenKey(fam.Token))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache delete failed", "family_id", fam.ID, "err", err)
	}
}

// effectiveTTL substitutes the configured expiry when the caller passes 0.
func (c *Cache) effectiveTTL(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return c.ttl
}

func (c *Cache) Close() error {
	return c.client.Close()
}
