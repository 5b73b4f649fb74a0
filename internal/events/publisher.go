package events

import (
	"context"
	"fmt"

	"wallet-ledger-go/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultRedisChannel = "transaction_events"
	DefaultKafkaTopic   = "wallet.transactions"
)

// Publisher delivers committed-transaction events to downstream consumers.
// key is the transaction id and payload the JSON encoded event.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

// NewPublisher builds the publisher selected by cfg.Backend
func NewPublisher(cfg models.EventsConfig) (Publisher, error) {
	switch cfg.Backend {
	case "", models.EventsBackendNone:
		return LogPublisher{}, nil
	case models.EventsBackendRedis:
		return NewRedisPublisher(cfg)
	case models.EventsBackendKafka:
		return NewKafkaPublisher(cfg)
	}
	return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
}

// LogPublisher only logs events
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	zap.L().Debug("Transaction event (log only)", zap.String("transaction_id", key), zap.ByteString("payload", payload))
	return nil
}

func (LogPublisher) Close() error {
	return nil
}
