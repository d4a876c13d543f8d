package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/skillnest")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("KAFKA_BROKERS", "")
		t.Setenv("KAFKA_TOPIC", "")
		t.Setenv("LOG_LEVEL", "")
		t.Setenv("APP_ADDR", "")

		cfg, err := Load(nil)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, "skillnest.events", cfg.KafkaTopic)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Empty(t, cfg.KafkaAddrs)
	})

	t.Run("flag overrides addr", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/skillnest")
		t.Setenv("JWT_SECRET", "s3cret")

		cfg, err := Load([]string{"-addr", ":9090"})
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
	})

	t.Run("empty redis addr disables redis", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/skillnest")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("REDIS_ADDR", "")

		cfg, err := Load(nil)
		require.NoError(t, err)
		assert.Empty(t, cfg.RedisAddr)
	})

	t.Run("missing dsn", func(t *testing.T) {
		t.Setenv("DB_DSN", "")
		t.Setenv("JWT_SECRET", "s3cret")

		_, err := Load(nil)
		assert.EqualError(t, err, "DB_DSN is not set")
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/skillnest")
		t.Setenv("JWT_SECRET", "")

		_, err := Load(nil)
		assert.EqualError(t, err, "JWT_SECRET is not set")
	})
}

func TestGetEnv(t *testing.T) {
	t.Setenv("SKILLNEST_TEST_KEY", "")
	assert.Equal(t, "fallback", GetEnv("SKILLNEST_TEST_KEY", "fallback"))

	t.Setenv("SKILLNEST_TEST_KEY", "set")
	assert.Equal(t, "set", GetEnv("SKILLNEST_TEST_KEY", "fallback"))
}
