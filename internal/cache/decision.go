package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
)

const (
	decisionKeyPrefix  = "decision:"
	defaultDecisionTTL = 5 * time.Minute
	invalidateBatch    = 100
	pingTimeout        = 5 * time.Second
)

// DecisionCache stores successful pipeline decisions per sku and store.
type DecisionCache interface {
	Get(ctx context.Context, sku, storeID string) (*domain.Decision, bool, error)
	Set(ctx context.Context, sku, storeID string, decision *domain.Decision) error
	InvalidateAll(ctx context.Context) error
}

type redisDecisionCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDecisionCache struct{}

// NewDecisionCache connects to redis when caching is enabled. The client is
// pinged once so a misconfigured cache fails at startup.
func NewDecisionCache(cfg config.CacheConfig) (DecisionCache, error) {
	if !cfg.Enabled {
		return &noopDecisionCache{}, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("decision cache: redis ping %s: %w", opts.Addr, err)
	}

	return &redisDecisionCache{client: client, ttl: decisionTTL(cfg)}, nil
}

func NewNoopDecisionCache() DecisionCache {
	return &noopDecisionCache{}
}

// redisOptions prefers REDIS_URL and otherwise builds the address from
// host and port, defaulting to a local server.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("decision cache: invalid redis url: %w", err)
		}
		return opts, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func decisionTTL(cfg config.CacheConfig) time.Duration {
	if cfg.DecisionTTLSeconds <= 0 {
		return defaultDecisionTTL
	}
	return time.Duration(cfg.DecisionTTLSeconds) * time.Second
}

func (c *redisDecisionCache) Get(ctx context.Context, sku, storeID string) (*domain.Decision, bool, error) {
	payload, err := c.client.Get(ctx, buildDecisionKey(sku, storeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var decision domain.Decision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return nil, false, fmt.Errorf("decode decision cache: %w", err)
	}

	return &decision, true, nil
}

func (c *redisDecisionCache) Set(ctx context.Context, sku, storeID string, decision *domain.Decision) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("encode decision cache: %w", err)
	}

	if err := c.client.Set(ctx, buildDecisionKey(sku, storeID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// InvalidateAll removes every cached decision, deleting keys in batches as
// the scan yields them.
func (c *redisDecisionCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, decisionKeyPrefix+"*", invalidateBatch).Iterator()
	batch := make([]string, 0, invalidateBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis delete failed: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == invalidateBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	return flush()
}

func (n *noopDecisionCache) Get(ctx context.Context, sku, storeID string) (*domain.Decision, bool, error) {
	return nil, false, nil
}

func (n *noopDecisionCache) Set(ctx context.Context, sku, storeID string, decision *domain.Decision) error {
	return nil
}

func (n *noopDecisionCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// buildDecisionKey hashes the pair so arbitrary query strings cannot collide
// or produce glob characters in SCAN patterns.
func buildDecisionKey(sku, storeID string) string {
	hash := sha1.Sum([]byte(sku + "\x00" + storeID))
	return decisionKeyPrefix + hex.EncodeToString(hash[:])
}
