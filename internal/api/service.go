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
package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-go/internal/metrics"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var defaultMinWithdrawal = decimal.NewFromInt(1000)

const defaultMaxRetries = 3

// Waker is notified after a commit that enqueued post-commit effects
type Waker interface {
	Wake()
}

type Option func(*LedgerService)

func WithWaker(waker Waker) Option {
	return func(s *LedgerService) {
		s.waker = waker
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LedgerService) {
		s.metrics = m
	}
}

// LedgerService is the money movement engine
type LedgerService struct {
	store    store.LedgerStore
	movement models.MovementConfig
	webhook  models.WebhookConfig
	waker    Waker
	metrics  *metrics.Metrics
}

func NewLedgerService(ledger store.LedgerStore, movement models.MovementConfig, webhook models.WebhookConfig, opts ...Option) *LedgerService {
	if movement.MinWithdrawal.IsZero() {
		movement.MinWithdrawal = defaultMinWithdrawal
	}
	if movement.MaxRetries < 0 {
		movement.MaxRetries = defaultMaxRetries
	}

	s := &LedgerService{
		store:    ledger,
		movement: movement,
		webhook:  webhook,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// execute runs fn in a unit of work, retrying when a concurrent writer
// changed a balance between read and update.
func (s *LedgerService) execute(ctx context.Context, txType string, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	for attempt := 0; ; attempt++ {
		err := s.store.WithinUnitOfWork(ctx, fn)
		if err == nil || !errors.Is(err, store.ErrConcurrentModification) || attempt >= s.movement.MaxRetries {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		s.metrics.ObserveRetry(txType)
		zap.L().Warn("Retrying unit of work after concurrent modification",
			zap.String("type", txType),
			zap.Int("attempt", attempt+1))
	}
}

// committed wakes the effect dispatcher. It never blocks.
func (s *LedgerService) committed() {
	if s.waker != nil {
		s.waker.Wake()
	}
}

func (s *LedgerService) observe(txType string, err error, start time.Time) {
	s.metrics.ObserveMovement(txType, resultLabel(err), time.Since(start))
}
