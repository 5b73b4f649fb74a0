package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-ledger-go/internal/models"

	"go.uber.org/zap"
)

// Start begins draining the outbox
func (l *OutboxListener) Start(ctx context.Context) error {
	zap.L().Info("Starting outbox listener")

	if err := l.store.Ping(ctx); err != nil {
		return fmt.Errorf("outbox store unavailable: %w", err)
	}

	go l.pollLoop(ctx)
	go l.cleanupLoop(ctx)

	zap.L().Info("Outbox listener started successfully",
		zap.Duration("polling_interval", l.pollingInterval),
		zap.Int("batch_size", l.batchSize),
		zap.Int("max_attempts", l.maxAttempts))

	return nil
}

// Stop gracefully stops the outbox listener
func (l *OutboxListener) Stop() {
	zap.L().Info("Stopping outbox listener")
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
	<-l.doneChan
	zap.L().Info("Outbox listener stopped")
}

// Wake schedules an immediate poll. It never blocks.
func (l *OutboxListener) Wake() {
	select {
	case l.wakeChan <- struct{}{}:
	default:
	}
}

// pollLoop runs the main polling loop
func (l *OutboxListener) pollLoop(ctx context.Context) {
	defer close(l.doneChan)

	ticker := time.NewTicker(l.pollingInterval)
	defer ticker.Stop()

	l.drain(ctx)

	for {
		select {
		case <-ticker.C:
			l.drain(ctx)
		case <-l.wakeChan:
			l.drain(ctx)
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// drain processes batches until the outbox has nothing due
func (l *OutboxListener) drain(ctx context.Context) {
	for {
		processed, err := l.ProcessBatch(ctx)
		if err != nil {
			zap.L().Error("Failed to process outbox batch", zap.Error(err))
			return
		}
		if processed < l.batchSize {
			return
		}
	}
}

// ProcessBatch claims due events and delivers them. It returns the number of
// events claimed.
func (l *OutboxListener) ProcessBatch(ctx context.Context) (int, error) {
	events, err := l.store.ClaimOutbox(ctx, l.batchSize, l.now())
	if err != nil {
		return 0, fmt.Errorf("failed to claim outbox events: %w", err)
	}
	l.metrics.ObserveOutboxPoll(len(events))

	for _, event := range events {
		l.processEvent(ctx, event)
	}
	return len(events), nil
}

func (l *OutboxListener) processEvent(ctx context.Context, event models.OutboxEvent) {
	if !l.isDelivered(event.Id) {
		err := l.deliver(ctx, event)
		l.metrics.ObserveOutboxDelivery(event.Kind, err)
		if err != nil {
			l.reschedule(ctx, event, err)
			return
		}
		l.markDelivered(event.Id)
	}

	if err := l.store.MarkOutboxSent(ctx, event.Id); err != nil {
		// The lease expires and the event is claimed again; the delivery
		// marker prevents a second send.
		zap.L().Error("Failed to mark outbox event sent",
			zap.String("event_id", event.Id),
			zap.Error(err))
		return
	}
	l.forgetDelivered(event.Id)
}

func (l *OutboxListener) deliver(ctx context.Context, event models.OutboxEvent) error {
	switch event.Kind {
	case models.OutboxKindEmail:
		var notification models.EmailNotification
		if err := json.Unmarshal(event.Payload, &notification); err != nil {
			return fmt.Errorf("invalid email payload: %w", err)
		}
		messageId, err := l.notifier.Send(ctx, notification.Recipient, notification)
		if err != nil {
			return err
		}
		zap.L().Debug("Notification delivered",
			zap.String("event_id", event.Id),
			zap.String("transaction_id", event.TransactionId),
			zap.String("message_id", messageId))
		return nil

	case models.OutboxKindCommitted:
		var committed models.CommittedEvent
		if err := json.Unmarshal(event.Payload, &committed); err != nil {
			return fmt.Errorf("invalid committed payload: %w", err)
		}
		if err := l.publisher.Publish(ctx, event.TransactionId, event.Payload); err != nil {
			return err
		}
		if l.mirror != nil {
			if err := l.mirror.Mirror(ctx, committed); err != nil {
				return fmt.Errorf("ledger mirror failed: %w", err)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown outbox event kind %q", event.Kind)
}

// reschedule records a failed attempt with exponential backoff, giving up
// after maxAttempts
func (l *OutboxListener) reschedule(ctx context.Context, event models.OutboxEvent, cause error) {
	attempts := event.Attempts + 1
	failed := attempts >= l.maxAttempts
	nextAttempt := l.now().Add(backoff(attempts))

	if err := l.store.MarkOutboxRetry(ctx, event.Id, cause.Error(), nextAttempt, failed); err != nil {
		zap.L().Error("Failed to reschedule outbox event",
			zap.String("event_id", event.Id),
			zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("event_id", event.Id),
		zap.String("kind", event.Kind),
		zap.String("transaction_id", event.TransactionId),
		zap.Int("attempts", attempts),
		zap.Error(cause),
	}
	if failed {
		zap.L().Error("Outbox event failed permanently", fields...)
		return
	}
	zap.L().Warn("Outbox event delivery failed, will retry", append(fields, zap.Time("next_attempt", nextAttempt))...)
}

func backoff(attempts int) time.Duration {
	delay := baseBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
