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

package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"wallet-ledger-go/internal/api"
	"wallet-ledger-go/internal/auth"
	"wallet-ledger-go/internal/database"
	"wallet-ledger-go/internal/events"
	"wallet-ledger-go/internal/formance"
	"wallet-ledger-go/internal/listener"
	"wallet-ledger-go/internal/metrics"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/notify"
	"wallet-ledger-go/internal/postgres"
	"wallet-ledger-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services is everything the server process runs
type Services struct {
	Store     store.Backend
	Ledger    *api.LedgerService
	Admins    *api.AdminService
	Tokens    *auth.TokenManager
	Metrics   *metrics.Metrics
	Listener  *listener.OutboxListener
	Publisher events.Publisher
	Formance  *formance.Service
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	backend, err := InitializeStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	services := &Services{Store: backend, Metrics: metrics.New()}

	notifier, err := initializeNotifier(cfg.Notification)
	if err != nil {
		services.Close()
		return nil, err
	}

	services.Publisher, err = events.NewPublisher(cfg.Events)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("unable to create event publisher: %w", err)
	}
	if pinger, ok := services.Publisher.(interface{ Ping(context.Context) error }); ok {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.PingTimeout)
		err := pinger.Ping(pingCtx)
		cancel()
		if err != nil {
			// Events stay in the outbox until the broker is reachable
			zap.L().Warn("Event broker not reachable", zap.Error(err))
		}
	}
	zap.L().Info("Event publisher ready", zap.String("backend", cfg.Events.Backend))

	var mirror listener.Mirror
	if cfg.Formance.StackURL != "" {
		services.Formance, err = formance.NewService(ctx, cfg.Formance)
		if err != nil {
			services.Close()
			return nil, err
		}
		mirror = services.Formance
		zap.L().Info("Mirroring committed movements to Formance",
			zap.String("stack_url", cfg.Formance.StackURL),
			zap.String("ledger", cfg.Formance.LedgerName))
	}

	services.Listener = listener.NewOutboxListener(listener.OutboxListenerConfig{
		Store:           backend,
		Notifier:        notifier,
		Publisher:       services.Publisher,
		Mirror:          mirror,
		Metrics:         services.Metrics,
		PollingInterval: cfg.Outbox.PollingInterval,
		CleanupInterval: cfg.Outbox.CleanupInterval,
		Retention:       cfg.Outbox.Retention,
		BatchSize:       cfg.Outbox.BatchSize,
		MaxAttempts:     cfg.Outbox.MaxAttempts,
	})

	if cfg.Webhook.SecretHash == "" {
		zap.L().Warn("WEBHOOK_SECRET_HASH is not set; every webhook will be rejected")
	}
	services.Ledger = api.NewLedgerService(backend, cfg.Movement, cfg.Webhook,
		api.WithWaker(services.Listener),
		api.WithMetrics(services.Metrics))

	if cfg.Auth.JWTSecret != "" {
		services.Tokens, err = auth.NewTokenManager(cfg.Auth)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.Admins = api.NewAdminService(backend, services.Tokens)
	}

	return services, nil
}

// InitializeStore opens the configured ledger store without any of the
// delivery machinery. Useful for command-line utilities.
func InitializeStore(ctx context.Context, cfg *models.Config) (store.Backend, error) {
	switch cfg.Database.Backend {
	case "", models.BackendSQLite:
		zap.L().Info("Using SQLite ledger store", zap.String("path", cfg.Database.Path))
		dbService, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return dbService, nil
	case models.BackendPostgres:
		zap.L().Info("Using PostgreSQL ledger store")
		pgService, err := postgres.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return pgService, nil
	}
	return nil, fmt.Errorf("unsupported ledger backend %q", cfg.Database.Backend)
}

func initializeNotifier(cfg models.NotificationConfig) (notify.Notifier, error) {
	templates := notify.DefaultTemplates()
	if cfg.TemplatesFile != "" {
		loaded, err := notify.LoadTemplates(cfg.TemplatesFile)
		if err != nil {
			return nil, err
		}
		templates = loaded
	}

	if cfg.SMTPHost == "" {
		zap.L().Info("SMTP_HOST not set; notifications will only be logged")
		return notify.NewLogNotifier(templates), nil
	}

	notifier, err := notify.NewSMTPNotifier(cfg, templates)
	if err != nil {
		return nil, err
	}
	zap.L().Info("SMTP notifier ready", zap.String("host", cfg.SMTPHost), zap.String("port", cfg.SMTPPort))
	return notifier, nil
}

// Close releases everything opened by InitializeServices. The listener must
// already be stopped.
func (cs *Services) Close() {
	if cs.Publisher != nil {
		if err := cs.Publisher.Close(); err != nil {
			zap.L().Warn("Failed to close event publisher", zap.Error(err))
		}
	}
	if cs.Formance != nil {
		cs.Formance.Close()
	}
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
