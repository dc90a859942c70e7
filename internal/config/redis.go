package config

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from REDIS_* variables.  The second
// result is false when REDIS_DISABLED is set.
//
//	REDIS_HOST, REDIS_PORT  server address (both required to take effect)
//	REDIS_ADDR              host:port fallback, default localhost:6379
//	REDIS_PASSWORD          optional
//	REDIS_DB                database number, default 0
//	REDIS_TLS               connect over TLS 1.2+
func RedisOptions() (*redis.Options, bool) {
	if envBool("REDIS_DISABLED", false) {
		return nil, false
	}
	addr := getenv("REDIS_ADDR", "localhost:6379")
	if host, port := getenv("REDIS_HOST", ""), getenv("REDIS_PORT", ""); host != "" && port != "" {
		addr = net.JoinHostPort(host, port)
	}
	opts := &redis.Options{
		Addr:     addr,
		Password: getenv("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
	}
	if envBool("REDIS_TLS", false) {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, true
}

// NewRedisClient connects to Redis and pings it once.  It returns nil when
// Redis is disabled or unreachable; callers then fall back to the
// in-process rate limiter and skip response caching.
func NewRedisClient() *redis.Client {
	opts, ok := RedisOptions()
	if !ok {
		return nil
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

// RabbitURL returns the AMQP broker URL used for dispatch audit events.
// RABBITMQ_URL wins over AMQP_URL.  An empty result disables publishing.
func RabbitURL() string {
	return getenv("RABBITMQ_URL", getenv("AMQP_URL", ""))
}
