package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("MILLTRACK_FACTORY_ID", "factory-12")
	t.Setenv("MILLTRACK_BACKEND_BASE_URL", "https://backend.example.com")
	t.Setenv("MILLTRACK_DB_PATH", "queue.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "factory-12", cfg.Agent.FactoryID)
	require.Equal(t, "sql", cfg.Queue.Backend)
	require.Equal(t, "milltrack:submission_queue", cfg.Queue.StorageKey)
	require.Equal(t, 5, cfg.Queue.MaxRetries)
	require.Equal(t, "23505", cfg.Sync.DuplicateCode)
	require.Equal(t, 10*time.Second, cfg.Net.ProbeInterval)
	require.True(t, cfg.DB.AutoMigrate)
}

func TestLoadRejectsUnknownQueueBackend(t *testing.T) {
	t.Setenv("MILLTRACK_FACTORY_ID", "factory-12")
	t.Setenv("MILLTRACK_BACKEND_BASE_URL", "https://backend.example.com")
	t.Setenv("MILLTRACK_DB_PATH", "queue.db")
	t.Setenv("MILLTRACK_QUEUE_BACKEND", "dynamo")

	_, err := Load()
	require.Error(t, err)
}

func TestDBConfigValidate(t *testing.T) {
	cfg := DBConfig{Driver: "sqlite", Path: "queue.db"}
	if err := cfg.validate(); err != nil {
		t.Fatalf("expected sqlite config to validate: %v", err)
	}

	cfg = DBConfig{Driver: "sqlite"}
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected error for sqlite without path")
	}

	cfg = DBConfig{Driver: "postgres"}
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected error for postgres without dsn")
	}

	cfg = DBConfig{Driver: "mysql", DSN: "x"}
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestQueueConfigValidate(t *testing.T) {
	if err := (QueueConfig{Backend: "sql"}).validate(); err != nil {
		t.Fatalf("sql backend should validate: %v", err)
	}
	if err := (QueueConfig{Backend: "redis"}).validate(); err != nil {
		t.Fatalf("redis backend should validate: %v", err)
	}
	if err := (QueueConfig{Backend: "dynamo"}).validate(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	if !(AppConfig{Env: "DEV"}).IsDev() {
		t.Fatalf("expected case-insensitive dev match")
	}
	if (AppConfig{Env: "dev"}).IsProd() {
		t.Fatalf("dev must not report prod")
	}
}
