// Package redis shares BOM explosions between processes through Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/taechang/production-core/pkg/application/services/bom"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/infrastructure/config"
)

const scanBatch = 100

// ExplosionCache stores per-unit explosions and their BOM revision as JSON under prefix+item id
type ExplosionCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

var _ bom.ExplosionCache = (*ExplosionCache)(nil)

// NewClient connects to Redis and verifies the connection with PING
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewExplosionCache wraps a client. A zero ttl keeps entries until purged.
func NewExplosionCache(client *goredis.Client, prefix string, ttl time.Duration) *ExplosionCache {
	return &ExplosionCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ExplosionCache) key(root entities.ItemID) string {
	return fmt.Sprintf("%s%d", c.prefix, root)
}

// entry is the JSON payload stored per root
type entry struct {
	Revision string              `json:"revision"`
	Lines    []bom.ExplosionLine `json:"lines"`
}

func (c *ExplosionCache) Get(ctx context.Context, root entities.ItemID, revision string) ([]bom.ExplosionLine, bool, error) {
	payload, err := c.client.Get(ctx, c.key(root)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", c.key(root), err)
	}

	var cached entry
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, false, fmt.Errorf("decode cached explosion for item %d: %w", root, err)
	}
	if cached.Revision != revision {
		return nil, false, nil
	}
	return cached.Lines, true, nil
}

func (c *ExplosionCache) Put(ctx context.Context, root entities.ItemID, revision string, perUnit []bom.ExplosionLine) error {
	payload, err := json.Marshal(entry{Revision: revision, Lines: perUnit})
	if err != nil {
		return fmt.Errorf("encode explosion for item %d: %w", root, err)
	}
	if err := c.client.Set(ctx, c.key(root), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key(root), err)
	}
	return nil
}

// ErrEmptyPrefix is returned by Purge when the cache has no key prefix,
// which would match every key in the database.
var ErrEmptyPrefix = errors.New("explosion cache prefix is empty")

// Purge deletes every key under the cache prefix
func (c *ExplosionCache) Purge(ctx context.Context) error {
	if c.prefix == "" {
		return ErrEmptyPrefix
	}
	iter := c.client.Scan(ctx, 0, c.prefix+"*", scanBatch).Iterator()
	keys := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatch {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis purge: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s*: %w", c.prefix, err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis purge: %w", err)
		}
	}
	return nil
}
