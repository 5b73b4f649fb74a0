package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database     DatabaseConfig
	Server       ServerConfig
	Movement     MovementConfig
	Webhook      WebhookConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Outbox       OutboxConfig
	Events       EventsConfig
	Formance     FormanceConfig
}

// Ledger store backends
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// DatabaseConfig holds ledger store connection settings
type DatabaseConfig struct {
	Backend          string
	Path             string
	URL              string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	BusyTimeout      time.Duration
	CreateDummyUsers bool
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	EnableH2C       bool
}

// MovementConfig holds the money movement rules
type MovementConfig struct {
	MinWithdrawal decimal.Decimal
	MaxRetries    int
}

// WebhookConfig holds payment provider callback settings
type WebhookConfig struct {
	SecretHash string
}

// AuthConfig holds admin token settings
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

// NotificationConfig holds outbound email settings. An empty SMTPHost
// selects the log-only notifier.
type NotificationConfig struct {
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	From          string
	TemplatesFile string
}

// OutboxConfig holds post-commit dispatcher settings
type OutboxConfig struct {
	PollingInterval time.Duration
	CleanupInterval time.Duration
	Retention       time.Duration
	BatchSize       int
	MaxAttempts     int
}

// Event publisher backends
const (
	EventsBackendNone  = "none"
	EventsBackendRedis = "redis"
	EventsBackendKafka = "kafka"
)

// EventsConfig holds committed-transaction event publisher settings
type EventsConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string
	KafkaBrokers  []string
	KafkaTopic    string
}

// FormanceConfig holds settings for mirroring committed movements into a
// Formance ledger. An empty StackURL disables the mirror.
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
	Currency     string
}
