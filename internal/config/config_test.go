package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
    t.Helper()
    t.Setenv("APP_PORT", "8080")
    t.Setenv("DB_USER", "app")
    t.Setenv("DB_HOST", "127.0.0.1")
    t.Setenv("DB_PORT", "3306")
    t.Setenv("DB_NAME", "equipment")
    t.Setenv("SESSION_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
    setRequired(t)
    for _, k := range []string{"APP_ENV", "DB_PASS", "SESSION_TTL_HOURS", "BCRYPT_COST", "ESP_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT"} {
        t.Setenv(k, "")
    }

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, "dev", cfg.Env)
    assert.Equal(t, "8080", cfg.Port)
    assert.Equal(t, 24, cfg.SessionTTLHours)
    assert.Equal(t, 12, cfg.BcryptCost)
    assert.Equal(t, 10*time.Second, cfg.ESPTimeout)
    assert.Equal(t, "info", cfg.LogLevel)
    assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadReportsAllMissingKeys(t *testing.T) {
    setRequired(t)
    t.Setenv("DB_HOST", "")
    t.Setenv("SESSION_SECRET", "")

    _, err := Load()
    require.Error(t, err)
    assert.Equal(t, "missing required env vars: DB_HOST, SESSION_SECRET", err.Error())
}

func TestLoadValidatesRanges(t *testing.T) {
    setRequired(t)
    t.Setenv("BCRYPT_COST", "40")
    _, err := Load()
    assert.ErrorContains(t, err, "BCRYPT_COST")

    t.Setenv("BCRYPT_COST", "10")
    t.Setenv("SESSION_TTL_HOURS", "0")
    _, err = Load()
    assert.ErrorContains(t, err, "SESSION_TTL_HOURS")

    t.Setenv("SESSION_TTL_HOURS", "1")
    t.Setenv("ESP_TIMEOUT", "0")
    cfg, err := Load()
    require.NoError(t, err)
    assert.Zero(t, cfg.ESPTimeout)
}

func TestLoadEnvFile(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, ".env")
    require.NoError(t, os.WriteFile(path, []byte("EQ_TEST_FROM_FILE=yes\nEQ_TEST_PRESET=file\n"), 0o600))
    t.Setenv("EQ_TEST_PRESET", "env")
    t.Setenv("EQ_TEST_FROM_FILE", "")
    os.Unsetenv("EQ_TEST_FROM_FILE")

    require.NoError(t, LoadEnvFile(path))
    assert.Equal(t, "yes", os.Getenv("EQ_TEST_FROM_FILE"))
    assert.Equal(t, "env", os.Getenv("EQ_TEST_PRESET"), "existing variables win")

    assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 5*time.Second, cfg.TTL)
    assert.Equal(t, "ip_route", cfg.KeyStrategy)
}

func TestLoadCacheConfig(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head")
    cfg := LoadCacheConfig()
    assert.True(t, cfg.Methods["GET"])
    assert.True(t, cfg.Methods["HEAD"])
    assert.Equal(t, "eqcache", cfg.Prefix)
}

func TestRabbitURL(t *testing.T) {
    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "amqp://fallback")
    assert.Equal(t, "amqp://fallback", RabbitURL())
    t.Setenv("RABBITMQ_URL", "amqp://primary")
    assert.Equal(t, "amqp://primary", RabbitURL())
}

func TestRedisOptions(t *testing.T) {
    t.Setenv("REDIS_DISABLED", "")
    t.Setenv("REDIS_ADDR", "")
    t.Setenv("REDIS_HOST", "cache")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("REDIS_DB", "2")
    t.Setenv("REDIS_TLS", "true")

    opts, ok := RedisOptions()
    require.True(t, ok)
    assert.Equal(t, "cache:6380", opts.Addr)
    assert.Equal(t, 2, opts.DB)
    assert.NotNil(t, opts.TLSConfig)

    t.Setenv("REDIS_PORT", "")
    opts, _ = RedisOptions()
    assert.Equal(t, "localhost:6379", opts.Addr, "host without port is ignored")

    t.Setenv("REDIS_DISABLED", "yes")
    _, ok = RedisOptions()
    assert.False(t, ok)
}
