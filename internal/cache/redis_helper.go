package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	// defaultEventsTTL matches how long a read of the event table stays fresh.
	defaultEventsTTL = 60 * time.Second
	redisPingTimeout = 5 * time.Second

	defaultRedisHost = "127.0.0.1"
	defaultRedisPort = "6379"
)

// dialRedis connects and pings the server within redisPingTimeout.
func dialRedis(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", opts.Addr, err)
	}

	return client, nil
}

// redisOptions prefers REDIS_URL and falls back to host, port and db.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = defaultRedisHost
	}
	port := cfg.RedisPort
	if port == "" {
		port = defaultRedisPort
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func eventsTTL(cfg config.CacheConfig) time.Duration {
	if cfg.EventsTTLSeconds <= 0 {
		return defaultEventsTTL
	}
	return time.Duration(cfg.EventsTTLSeconds) * time.Second
}

// purgePrefix unlinks every key under prefix, batchSize keys per round trip.
func purgePrefix(ctx context.Context, client *redis.Client, prefix string, batchSize int64) error {
	iter := client.Scan(ctx, 0, prefix+"*", batchSize).Iterator()

	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink under %s failed: %w", prefix, err)
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan under %s failed: %w", prefix, err)
	}

	return flush()
}
