package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/config"
	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	eventsKeyPrefix     = "inventory:events"
	eventsScanBatchSize = 100
)

// EventsCache holds recently read event tables, keyed by their source.
type EventsCache interface {
	GetRecords(ctx context.Context, source string) ([]domain.Record, bool, error)
	SetRecords(ctx context.Context, source string, records []domain.Record) error
	Invalidate(ctx context.Context, source string) error
	InvalidateAll(ctx context.Context) error
}

type redisEventsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopEventsCache struct{}

// NewEventsCache returns a Redis-backed cache, or a no-op cache when caching
// is disabled.
func NewEventsCache(cfg config.CacheConfig) (EventsCache, error) {
	if !cfg.Enabled {
		return &noopEventsCache{}, nil
	}

	client, err := dialRedis(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	return &redisEventsCache{
		client: client,
		ttl:    eventsTTL(cfg),
	}, nil
}

func NewNoopEventsCache() EventsCache {
	return &noopEventsCache{}
}

func (c *redisEventsCache) GetRecords(ctx context.Context, source string) ([]domain.Record, bool, error) {
	payload, err := c.client.Get(ctx, buildEventsKey(source)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var records []domain.Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, false, fmt.Errorf("decode events cache: %w", err)
	}

	return records, true, nil
}

func (c *redisEventsCache) SetRecords(ctx context.Context, source string, records []domain.Record) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode events cache: %w", err)
	}

	if err := c.client.Set(ctx, buildEventsKey(source), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisEventsCache) Invalidate(ctx context.Context, source string) error {
	return c.client.Del(ctx, buildEventsKey(source)).Err()
}

func (c *redisEventsCache) InvalidateAll(ctx context.Context) error {
	return purgePrefix(ctx, c.client, eventsKeyPrefix+":", eventsScanBatchSize)
}

func (n *noopEventsCache) GetRecords(ctx context.Context, source string) ([]domain.Record, bool, error) {
	return nil, false, nil
}

func (n *noopEventsCache) SetRecords(ctx context.Context, source string, records []domain.Record) error {
	return nil
}

func (n *noopEventsCache) Invalidate(ctx context.Context, source string) error {
	return nil
}

func (n *noopEventsCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildEventsKey(source string) string {
	return fmt.Sprintf("%s:%s", eventsKeyPrefix, sourceHash(source))
}

func sourceHash(source string) string {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		return "default"
	}
	sum := sha1.Sum([]byte(source))
	return hex.EncodeToString(sum[:])
}
