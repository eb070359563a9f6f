package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	RedisURL     string
	KafkaBrokers []string

	OfferEventsTopic   string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	IdempotencyTTL     time.Duration

	EnableOfferEventEmission bool
	AutoMigrate              bool
}

type configFile struct {
	Service struct {
		Name     string `yaml:"name"`
		HTTPPort string `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresDSN  string   `yaml:"postgres_dsn"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Offers struct {
		EventsTopic         string `yaml:"events_topic"`
		OutboxPollSeconds   int    `yaml:"outbox_poll_seconds"`
		OutboxBatchSize     int    `yaml:"outbox_batch_size"`
		IdempotencyTTLHours int    `yaml:"idempotency_ttl_hours"`
		EmitEvents          *bool  `yaml:"emit_events"`
		AutoMigrate         *bool  `yaml:"auto_migrate"`
	} `yaml:"offers"`
}

// Load builds the process config from defaults, an optional YAML file named by
// CONFIG_PATH, and environment overrides, in that order.
func Load() (Config, error) {
	return LoadFile(os.Getenv("CONFIG_PATH"))
}

func LoadFile(path string) (Config, error) {
	cfg := Config{
		ServiceName:              "offerhub",
		HTTPPort:                 "8080",
		KafkaBrokers:             []string{"localhost:9092"},
		OfferEventsTopic:         "offer-events",
		OutboxPollInterval:       2 * time.Second,
		OutboxBatchSize:          100,
		IdempotencyTTL:           7 * 24 * time.Hour,
		EnableOfferEventEmission: true,
		AutoMigrate:              true,
	}

	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var f configFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		applyFile(&cfg, f)
	}

	cfg.ServiceName = envOrDefault("SERVICE_NAME", cfg.ServiceName)
	cfg.HTTPPort = envOrDefault("HTTP_PORT", cfg.HTTPPort)
	cfg.PostgresDSN = envOrDefault("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.OfferEventsTopic = envOrDefault("OFFER_EVENTS_TOPIC", cfg.OfferEventsTopic)
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EnableOfferEventEmission = envBool("ENABLE_OFFER_EVENT_EMISSION", cfg.EnableOfferEventEmission)
	cfg.AutoMigrate = envBool("AUTO_MIGRATE", cfg.AutoMigrate)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, f configFile) {
	if f.Service.Name != "" {
		cfg.ServiceName = f.Service.Name
	}
	if f.Service.HTTPPort != "" {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Dependencies.PostgresDSN != "" {
		cfg.PostgresDSN = f.Dependencies.PostgresDSN
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if brokers := trimNonEmpty(f.Dependencies.KafkaBrokers); len(brokers) > 0 {
		cfg.KafkaBrokers = brokers
	}
	if f.Offers.EventsTopic != "" {
		cfg.OfferEventsTopic = f.Offers.EventsTopic
	}
	if f.Offers.OutboxPollSeconds > 0 {
		cfg.OutboxPollInterval = time.Duration(f.Offers.OutboxPollSeconds) * time.Second
	}
	if f.Offers.OutboxBatchSize > 0 {
		cfg.OutboxBatchSize = f.Offers.OutboxBatchSize
	}
	if f.Offers.IdempotencyTTLHours > 0 {
		cfg.IdempotencyTTL = time.Duration(f.Offers.IdempotencyTTLHours) * time.Hour
	}
	if f.Offers.EmitEvents != nil {
		cfg.EnableOfferEventEmission = *f.Offers.EmitEvents
	}
	if f.Offers.AutoMigrate != nil {
		cfg.AutoMigrate = *f.Offers.AutoMigrate
	}
}

func (c Config) validate() error {
	if c.OutboxPollInterval <= 0 {
		return errors.New("OUTBOX_POLL_SECONDS must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	}
	if c.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL_HOURS must be positive")
	}
	return nil
}

func envOrDefault(name string, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	values := trimNonEmpty(strings.Split(raw, ","))
	if len(values) == 0 {
		return fallback
	}
	return values
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
