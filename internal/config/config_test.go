package config

import (
	"strings"
	"testing"
	"time"

	"wallet-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("WITHDRAW_MIN_AMOUNT", "")
	t.Setenv("OUTBOX_POLLING_INTERVAL", "")
	t.Setenv("EVENTS_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Backend != models.BackendSQLite {
		t.Errorf("Expected sqlite backend, got %q", cfg.Database.Backend)
	}
	if !cfg.Movement.MinWithdrawal.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected minimum withdrawal 1000, got %s", cfg.Movement.MinWithdrawal)
	}
	if cfg.Outbox.PollingInterval != 5*time.Second {
		t.Errorf("Expected 5s polling interval, got %s", cfg.Outbox.PollingInterval)
	}
	if cfg.Events.Backend != models.EventsBackendNone {
		t.Errorf("Expected no events backend, got %q", cfg.Events.Backend)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/wallet")
	t.Setenv("WITHDRAW_MIN_AMOUNT", "2500.50")
	t.Setenv("OUTBOX_RETENTION", "48h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("SERVER_ENABLE_H2C", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Backend != models.BackendPostgres {
		t.Errorf("Expected postgres backend, got %q", cfg.Database.Backend)
	}
	if !cfg.Movement.MinWithdrawal.Equal(decimal.RequireFromString("2500.50")) {
		t.Errorf("Expected minimum withdrawal 2500.50, got %s", cfg.Movement.MinWithdrawal)
	}
	if cfg.Outbox.Retention != 48*time.Hour {
		t.Errorf("Expected 48h retention, got %s", cfg.Outbox.Retention)
	}
	if got := strings.Join(cfg.Server.AllowedOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("Unexpected origins: %s", got)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Expected invalid int to fall back to 25, got %d", cfg.Database.MaxOpenConns)
	}
	if !cfg.Server.EnableH2C {
		t.Error("Expected h2c enabled")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid duration", map[string]string{"JWT_TTL": "forever"}, "JWT_TTL"},
		{"unknown backend", map[string]string{"LEDGER_BACKEND": "mysql"}, "LEDGER_BACKEND"},
		{"postgres without url", map[string]string{"LEDGER_BACKEND": "postgres", "DATABASE_URL": ""}, "DATABASE_URL"},
		{"unknown events backend", map[string]string{"EVENTS_BACKEND": "nats"}, "EVENTS_BACKEND"},
		{"non-positive minimum", map[string]string{"WITHDRAW_MIN_AMOUNT": "0"}, "WITHDRAW_MIN_AMOUNT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
