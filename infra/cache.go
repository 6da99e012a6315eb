package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tnqbao/gau-feed-service/config"
)

var ErrCacheMiss = errors.New("key not found in cache")

type RedisClient struct {
	Client *redis.Client
	ttl    time.Duration
}

func InitRedisClient(ctx context.Context, cfg *config.EnvConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisHost + ":" + cfg.Redis.RedisPort,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisClient{Client: client, ttl: cfg.Redis.FeedTTL}, nil
}

func (r *RedisClient) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisClient) Get(ctx context.Context, key string, dest any) error {
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	return r.Client.Del(ctx, keys...).Err()
}

func FeedCacheKey(feedID string) string {
	return "feed:" + feedID
}

// SetFeed caches a feed representation. Feeds never change after creation,
// so entries are only bounded by the configured TTL.
func (r *RedisClient) SetFeed(ctx context.Context, feedID string, feed any) error {
	return r.Set(ctx, FeedCacheKey(feedID), feed, r.ttl)
}

func (r *RedisClient) GetFeed(ctx context.Context, feedID string, dest any) error {
	return r.Get(ctx, FeedCacheKey(feedID), dest)
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}
