package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"CONFIG_PATH", "SERVICE_NAME", "HTTP_PORT", "POSTGRES_DSN", "REDIS_URL",
		"KAFKA_BROKERS", "OFFER_EVENTS_TOPIC", "OUTBOX_POLL_SECONDS", "OUTBOX_BATCH_SIZE",
		"IDEMPOTENCY_TTL_HOURS", "ENABLE_OFFER_EVENT_EMISSION", "AUTO_MIGRATE",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "offerhub" || cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected service defaults: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.OfferEventsTopic != "offer-events" {
		t.Fatalf("unexpected topic: %s", cfg.OfferEventsTopic)
	}
	if cfg.IdempotencyTTL != 7*24*time.Hour {
		t.Fatalf("unexpected idempotency ttl: %s", cfg.IdempotencyTTL)
	}
	if !cfg.EnableOfferEventEmission || !cfg.AutoMigrate {
		t.Fatalf("expected emission and migration enabled by default")
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "offerhub.yaml")
	body := `
service:
  name: offerhub-staging
  http_port: "9000"
dependencies:
  postgres_dsn: postgres://file
  kafka_brokers: [" kafka-1:9092 ", "", "kafka-2:9092"]
offers:
  events_topic: offers.staging
  outbox_batch_size: 25
  emit_events: false
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("POSTGRES_DSN", "postgres://env")
	t.Setenv("OUTBOX_POLL_SECONDS", "5")
	t.Setenv("AUTO_MIGRATE", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "offerhub-staging" || cfg.HTTPPort != "9000" {
		t.Fatalf("expected file service values, got %+v", cfg)
	}
	if cfg.PostgresDSN != "postgres://env" {
		t.Fatalf("expected env dsn to win, got %s", cfg.PostgresDSN)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "kafka-1:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.OfferEventsTopic != "offers.staging" || cfg.OutboxBatchSize != 25 {
		t.Fatalf("unexpected offers section: %+v", cfg)
	}
	if cfg.OutboxPollInterval != 5*time.Second {
		t.Fatalf("expected env poll interval, got %s", cfg.OutboxPollInterval)
	}
	if cfg.EnableOfferEventEmission || cfg.AutoMigrate {
		t.Fatalf("expected emission and migration disabled")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("OUTBOX_BATCH_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("OFFERHUB_TEST_BOOL", "nope")
	if !envBool("OFFERHUB_TEST_BOOL", true) {
		t.Fatalf("expected fallback for unrecognised bool")
	}
	t.Setenv("OFFERHUB_TEST_INT", "abc")
	if envInt("OFFERHUB_TEST_INT", 7) != 7 {
		t.Fatalf("expected fallback for bad int")
	}
	t.Setenv("OFFERHUB_TEST_CSV", " , ")
	if got := envCSV("OFFERHUB_TEST_CSV", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Fatalf("expected fallback for empty csv, got %v", got)
	}
}
