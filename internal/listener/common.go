/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package listener

import (
	"context"
	"sync"
	"time"

	"wallet-ledger-go/internal/events"
	"wallet-ledger-go/internal/metrics"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/notify"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultCleanupInterval = time.Hour
	defaultRetention       = 7 * 24 * time.Hour
	defaultBatchSize       = 50
	defaultMaxAttempts     = 8

	baseBackoff = 5 * time.Second
	maxBackoff  = 10 * time.Minute
)

// Mirror copies a committed movement into an external ledger
type Mirror interface {
	Mirror(ctx context.Context, event models.CommittedEvent) error
}

// OutboxListenerConfig contains configuration for OutboxListener
type OutboxListenerConfig struct {
	Store     store.LedgerStore
	Notifier  notify.Notifier
	Publisher events.Publisher
	Mirror    Mirror
	Metrics   *metrics.Metrics

	PollingInterval time.Duration
	CleanupInterval time.Duration
	Retention       time.Duration
	BatchSize       int
	MaxAttempts     int
}

// OutboxListener drains post-commit effects: email notifications, event
// publication and the optional external ledger mirror. Failures are retried
// with backoff and never reach the movement that produced them.
type OutboxListener struct {
	store     store.LedgerStore
	notifier  notify.Notifier
	publisher events.Publisher
	mirror    Mirror
	metrics   *metrics.Metrics

	// Events delivered but not yet marked sent
	deliveredIds map[string]time.Time
	mutex        sync.RWMutex

	pollingInterval time.Duration
	cleanupInterval time.Duration
	retention       time.Duration
	batchSize       int
	maxAttempts     int
	now             func() time.Time

	// Control channels
	wakeChan chan struct{}
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewOutboxListener creates a new outbox listener
func NewOutboxListener(cfg OutboxListenerConfig) *OutboxListener {
	l := &OutboxListener{
		store:           cfg.Store,
		notifier:        cfg.Notifier,
		publisher:       cfg.Publisher,
		mirror:          cfg.Mirror,
		metrics:         cfg.Metrics,
		deliveredIds:    make(map[string]time.Time),
		pollingInterval: cfg.PollingInterval,
		cleanupInterval: cfg.CleanupInterval,
		retention:       cfg.Retention,
		batchSize:       cfg.BatchSize,
		maxAttempts:     cfg.MaxAttempts,
		now:             time.Now,
		wakeChan:        make(chan struct{}, 1),
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}

	if l.notifier == nil {
		l.notifier = notify.NewLogNotifier(nil)
	}
	if l.publisher == nil {
		l.publisher = events.LogPublisher{}
	}
	if l.pollingInterval <= 0 {
		l.pollingInterval = defaultPollingInterval
	}
	if l.cleanupInterval <= 0 {
		l.cleanupInterval = defaultCleanupInterval
	}
	if l.retention <= 0 {
		l.retention = defaultRetention
	}
	if l.batchSize <= 0 {
		l.batchSize = defaultBatchSize
	}
	if l.maxAttempts <= 0 {
		l.maxAttempts = defaultMaxAttempts
	}
	return l
}

// isDelivered checks if an event was delivered by this process
func (l *OutboxListener) isDelivered(eventId string) bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	_, exists := l.deliveredIds[eventId]
	return exists
}

func (l *OutboxListener) markDelivered(eventId string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.deliveredIds[eventId] = l.now()
}

func (l *OutboxListener) forgetDelivered(eventId string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	delete(l.deliveredIds, eventId)
}

// cleanupLoop periodically purges sent events past retention
func (l *OutboxListener) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup(ctx)
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Cleanup removes sent events older than the retention window and stale
// delivery markers
func (l *OutboxListener) Cleanup(ctx context.Context) {
	cutoff := l.now().UTC().Add(-l.retention)

	purged, err := l.store.PurgeOutbox(ctx, cutoff)
	if err != nil {
		zap.L().Error("Failed to purge outbox", zap.Error(err))
	} else if purged > 0 {
		l.metrics.ObserveOutboxPurge(purged)
		zap.L().Info("Purged delivered outbox events", zap.Int64("purged", purged))
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	cleaned := 0
	for eventId, deliveredAt := range l.deliveredIds {
		if deliveredAt.Before(cutoff) {
			delete(l.deliveredIds, eventId)
			cleaned++
		}
	}
	if cleaned > 0 {
		zap.L().Debug("Cleaned up delivery markers",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", len(l.deliveredIds)))
	}
}
