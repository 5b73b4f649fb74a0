package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-go/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher publishes events on a Redis Pub/Sub channel
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(cfg models.EventsConfig) (*RedisPublisher, error) {
	if cfg.RedisAddr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	channel := cfg.RedisChannel
	if channel == "" {
		channel = DefaultRedisChannel
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	zap.L().Info("Redis event publisher configured",
		zap.String("addr", cfg.RedisAddr),
		zap.Int("db", cfg.RedisDB),
		zap.String("channel", channel))

	return &RedisPublisher{rdb: rdb, channel: channel}, nil
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

func (p *RedisPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", key, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
