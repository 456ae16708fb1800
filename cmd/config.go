package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

const (
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

type Config struct {
	HTTPPort string

	LedgerBackend string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSslMode     string
	DataDir       string

	AMQPURL      string
	AMQPExchange string

	KafkaBrokers       []string
	KafkaConsumerGroup string
	KafkaActionsTopic  string

	OtelExporterURL string

	AcceptTimeout    time.Duration
	TimeZone         string
	AdminID          kernel.ParticipantID
	RolloverSchedule string
}

// LoadConfig reads the environment. Unset values fall back to defaults
// suitable for a single local instance.
func LoadConfig() (Config, error) {
	cfg := Config{
		HTTPPort:           envOr("HTTP_PORT", "8080"),
		LedgerBackend:      envOr("LEDGER_BACKEND", BackendFile),
		DBHost:             os.Getenv("DB_HOST"),
		DBPort:             envOr("DB_PORT", "5432"),
		DBUser:             os.Getenv("DB_USER"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBName:             os.Getenv("DB_NAME"),
		DBSslMode:          envOr("DB_SSLMODE", "disable"),
		DataDir:            envOr("DATA_DIR", "data"),
		AMQPURL:            os.Getenv("AMQP_URL"),
		AMQPExchange:       envOr("AMQP_EXCHANGE", "dispatch.notifications"),
		KafkaConsumerGroup: envOr("KAFKA_CONSUMER_GROUP", "dispatch"),
		KafkaActionsTopic:  envOr("KAFKA_ACTIONS_TOPIC", "courier-actions"),
		OtelExporterURL:    os.Getenv("OTEL_EXPORTER_URL"),
		TimeZone:           envOr("TIME_ZONE", "Europe/Moscow"),
		RolloverSchedule:   os.Getenv("ROLLOVER_SCHEDULE"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	switch cfg.LedgerBackend {
	case BackendPostgres, BackendFile:
	default:
		return Config{}, fmt.Errorf("LEDGER_BACKEND: unknown backend %q", cfg.LedgerBackend)
	}

	if raw := os.Getenv("DISPATCH_ACCEPT_TIMEOUT"); raw != "" {
		timeout, err := parseTimeout(raw)
		if err != nil {
			return Config{}, fmt.Errorf("DISPATCH_ACCEPT_TIMEOUT: %w", err)
		}
		cfg.AcceptTimeout = timeout
	}

	if raw := os.Getenv("ADMIN_ID"); raw != "" {
		admin, err := kernel.ParseParticipantID(raw)
		if err != nil {
			return Config{}, fmt.Errorf("ADMIN_ID: %w", err)
		}
		cfg.AdminID = admin
	}

	return cfg, nil
}

// Location resolves TimeZone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// parseTimeout accepts a Go duration or a bare number of seconds.
func parseTimeout(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("must be positive, got %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
