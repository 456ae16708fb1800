package cmd

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"LEDGER_BACKEND", "DISPATCH_ACCEPT_TIMEOUT", "ADMIN_ID", "KAFKA_BROKERS", "TIME_ZONE"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.LedgerBackend)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "Europe/Moscow", cfg.TimeZone)
	assert.Zero(t, cfg.AcceptTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "postgres")
	t.Setenv("DISPATCH_ACCEPT_TIMEOUT", "90")
	t.Setenv("ADMIN_ID", "500")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("TIME_ZONE", "UTC")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.LedgerBackend)
	assert.Equal(t, 90*time.Second, cfg.AcceptTimeout)
	assert.Equal(t, kernel.ParticipantID(500), cfg.AdminID)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"LEDGER_BACKEND", "mongo"},
		{"DISPATCH_ACCEPT_TIMEOUT", "-5"},
		{"DISPATCH_ACCEPT_TIMEOUT", "soon"},
		{"ADMIN_ID", "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()

			require.Error(t, err)
		})
	}
}

func TestParseTimeout(t *testing.T) {
	d, err := parseTimeout("1m30s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = parseTimeout("0s")
	require.Error(t, err)
}
