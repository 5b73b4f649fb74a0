package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-go/internal/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher writes events to a Kafka topic keyed by transaction id
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg models.EventsConfig) (*KafkaPublisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("kafka brokers cannot be empty")
	}
	topic := cfg.KafkaTopic
	if topic == "" {
		topic = DefaultKafkaTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			zap.L().Error("Kafka writer error", zap.String("message", fmt.Sprintf(msg, args...)))
		}),
	}

	zap.L().Info("Kafka event publisher configured",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", topic))

	return &KafkaPublisher{writer: writer}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to write event %s: %w", key, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
