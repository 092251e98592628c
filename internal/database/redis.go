package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients holds the two connections the relay keeps to one Redis:
// Store backs conversations and sessions, PubSub carries the relay event
// feed. Subscriptions hold their connection, so the feed never shares a
// pool with storage traffic.
type RedisClients struct {
	Store  *redis.Client
	PubSub *redis.Client
}

const redisConnectTimeout = 10 * time.Second

func NewRedisClients(ctx context.Context, redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	store, err := connectRedis(ctx, opt, "store")
	if err != nil {
		return nil, err
	}

	pubsubOpt := *opt
	pubsub, err := connectRedis(ctx, &pubsubOpt, "pubsub")
	if err != nil {
		store.Close()
		return nil, err
	}

	return &RedisClients{Store: store, PubSub: pubsub}, nil
}

func connectRedis(ctx context.Context, opt *redis.Options, role string) (*redis.Client, error) {
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis (%s) at %s: %w", role, opt.Addr, err)
	}
	return client, nil
}

func (r *RedisClients) Close() error {
	return errors.Join(r.Store.Close(), r.PubSub.Close())
}
