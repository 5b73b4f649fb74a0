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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"wallet-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Load reads the configuration from the environment. Malformed durations are
// rejected; other malformed values fall back to their defaults.
func Load() (*models.Config, error) {
	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Backend:          strings.ToLower(getEnvString("LEDGER_BACKEND", models.BackendSQLite)),
			Path:             getEnvString("DATABASE_PATH", "wallet.db"),
			URL:              getEnvString("DATABASE_URL", ""),
			MaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 5),
			CreateDummyUsers: getEnvBool("CREATE_DUMMY_USERS", false),
		},
		Server: models.ServerConfig{
			Addr:           getEnvString("SERVER_ADDR", ":3000"),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			EnableH2C:      getEnvBool("SERVER_ENABLE_H2C", false),
		},
		Movement: models.MovementConfig{
			MinWithdrawal: getEnvDecimal("WITHDRAW_MIN_AMOUNT", decimal.NewFromInt(1000)),
			MaxRetries:    getEnvInt("MOVEMENT_MAX_RETRIES", 3),
		},
		Webhook: models.WebhookConfig{
			SecretHash: getEnvString("WEBHOOK_SECRET_HASH", ""),
		},
		Auth: models.AuthConfig{
			JWTSecret: getEnvString("JWT_SECRET", ""),
			Issuer:    getEnvString("JWT_ISSUER", "wallet-ledger"),
		},
		Notification: models.NotificationConfig{
			SMTPHost:      getEnvString("SMTP_HOST", ""),
			SMTPPort:      getEnvString("SMTP_PORT", "587"),
			SMTPUsername:  getEnvString("SMTP_USERNAME", ""),
			SMTPPassword:  getEnvString("SMTP_PASSWORD", ""),
			From:          getEnvString("SMTP_FROM", "no-reply@wallet.local"),
			TemplatesFile: getEnvString("EMAIL_TEMPLATES_FILE", ""),
		},
		Outbox: models.OutboxConfig{
			BatchSize:   getEnvInt("OUTBOX_BATCH_SIZE", 50),
			MaxAttempts: getEnvInt("OUTBOX_MAX_ATTEMPTS", 8),
		},
		Events: models.EventsConfig{
			Backend:       strings.ToLower(getEnvString("EVENTS_BACKEND", models.EventsBackendNone)),
			RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnvString("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			RedisChannel:  getEnvString("REDIS_CHANNEL", ""),
			KafkaBrokers:  getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			KafkaTopic:    getEnvString("KAFKA_TOPIC", ""),
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "wallet-ledger"),
			Currency:     strings.ToUpper(getEnvString("FORMANCE_CURRENCY", "NGN")),
		},
	}

	durations := []struct {
		key          string
		defaultValue time.Duration
		target       *time.Duration
	}{
		{"DB_CONN_MAX_LIFETIME", 5 * time.Minute, &cfg.Database.ConnMaxLifetime},
		{"DB_CONN_MAX_IDLE_TIME", 30 * time.Second, &cfg.Database.ConnMaxIdleTime},
		{"DB_PING_TIMEOUT", 5 * time.Second, &cfg.Database.PingTimeout},
		{"DB_BUSY_TIMEOUT", 5 * time.Second, &cfg.Database.BusyTimeout},
		{"SERVER_READ_TIMEOUT", 15 * time.Second, &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", 30 * time.Second, &cfg.Server.WriteTimeout},
		{"SERVER_REQUEST_TIMEOUT", 20 * time.Second, &cfg.Server.RequestTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", 10 * time.Second, &cfg.Server.ShutdownTimeout},
		{"JWT_TTL", 24 * time.Hour, &cfg.Auth.TokenTTL},
		{"OUTBOX_POLLING_INTERVAL", 5 * time.Second, &cfg.Outbox.PollingInterval},
		{"OUTBOX_CLEANUP_INTERVAL", 15 * time.Minute, &cfg.Outbox.CleanupInterval},
		{"OUTBOX_RETENTION", 7 * 24 * time.Hour, &cfg.Outbox.Retention},
	}
	for _, d := range durations {
		value, err := getEnvDuration(d.key, d.defaultValue)
		if err != nil {
			return nil, err
		}
		*d.target = value
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *models.Config) error {
	switch cfg.Database.Backend {
	case models.BackendSQLite:
	case models.BackendPostgres:
		if cfg.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when LEDGER_BACKEND is %s", models.BackendPostgres)
		}
	default:
		return fmt.Errorf("unsupported LEDGER_BACKEND: %q", cfg.Database.Backend)
	}

	switch cfg.Events.Backend {
	case models.EventsBackendNone, models.EventsBackendRedis, models.EventsBackendKafka:
	default:
		return fmt.Errorf("unsupported EVENTS_BACKEND: %q", cfg.Events.Backend)
	}

	if !cfg.Movement.MinWithdrawal.IsPositive() {
		return fmt.Errorf("WITHDRAW_MIN_AMOUNT must be positive, got %s", cfg.Movement.MinWithdrawal)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if amount, err := decimal.NewFromString(value); err == nil {
			return amount
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
