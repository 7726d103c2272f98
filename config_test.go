package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDBEnv(t *testing.T) {
	t.Setenv("POSTGRES_USER", "market")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "marketplace")
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("AWS_USE_SECRETS", "false")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setDBEnv(t)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8086", cfg.Port)
	assert.Equal(t, 4, cfg.CheckoutConcurrency)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setDBEnv(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CHECKOUT_CONCURRENCY", "8")
	t.Setenv("IDEMPOTENCY_TTL", "90m")
	t.Setenv("CLOUDWATCH_METRICS_ENABLED", "true")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 8, cfg.CheckoutConcurrency)
	assert.Equal(t, 90*time.Minute, cfg.IdempotencyTTL)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "localhost", cfg.Postgres().Host)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("missing database", func(t *testing.T) {
		t.Setenv("POSTGRES_USER", "")
		t.Setenv("POSTGRES_HOST", "")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("non positive concurrency", func(t *testing.T) {
		setDBEnv(t)
		t.Setenv("CHECKOUT_CONCURRENCY", "0")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestApplySecrets_OnlyNonEmpty(t *testing.T) {
	cfg := &Config{PostgresUser: "env-user", PostgresHost: "env-host"}

	cfg.applySecrets(map[string]string{"POSTGRES_USER": "secret-user", "POSTGRES_HOST": ""})

	assert.Equal(t, "secret-user", cfg.PostgresUser)
	assert.Equal(t, "env-host", cfg.PostgresHost)
}
