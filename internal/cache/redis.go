// Package cache keeps cross-run diagnostics in Redis: how often each scraped
// name failed to resolve and the last run report per competition.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"rugbyscores/ingestion/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "rugby"

// reportTTL bounds how long a competition's last report is kept
const reportTTL = 7 * 24 * time.Hour

// Config holds Redis connection settings
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisCache wraps a go-redis client
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects and pings Redis
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func unmappedKey(competition string) string {
	return fmt.Sprintf("%s:unmapped:%s", keyPrefix, competition)
}

func reportKey(competition string) string {
	return fmt.Sprintf("%s:report:%s", keyPrefix, competition)
}

// RecordUnmapped adds this run's miss counts to the competition's running totals
func (c *RedisCache) RecordUnmapped(ctx context.Context, competition string, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { metrics.RecordCacheOperation("record_unmapped", time.Since(start).Seconds()) }()

	key := unmappedKey(competition)
	pipe := c.client.TxPipeline()
	for raw, n := range counts {
		pipe.HIncrBy(ctx, key, raw, int64(n))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record unmapped names: %w", err)
	}
	return nil
}

// UnmappedCount is a name with its total miss count
type UnmappedCount struct {
	Raw   string
	Count int
}

// TopUnmapped returns the n most frequently missed names, most frequent first
func (c *RedisCache) TopUnmapped(ctx context.Context, competition string, n int) ([]UnmappedCount, error) {
	start := time.Now()
	defer func() { metrics.RecordCacheOperation("top_unmapped", time.Since(start).Seconds()) }()

	all, err := c.client.HGetAll(ctx, unmappedKey(competition)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read unmapped names: %w", err)
	}

	return topCounts(all, n), nil
}

func topCounts(raw map[string]string, n int) []UnmappedCount {
	out := make([]UnmappedCount, 0, len(raw))
	for name, v := range raw {
		count, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out = append(out, UnmappedCount{Raw: name, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Raw < out[j].Raw
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SaveReport stores v as the competition's most recent run report
func (c *RedisCache) SaveReport(ctx context.Context, competition string, v interface{}) error {
	start := time.Now()
	defer func() { metrics.RecordCacheOperation("save_report", time.Since(start).Seconds()) }()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := c.client.Set(ctx, reportKey(competition), data, reportTTL).Err(); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	log.Debug().Str("competition", competition).Msg("Run report cached")
	return nil
}
