package config

import "time"

// RateLimitConfig sizes the token bucket guarding POST /request_to_esp.
// A bucket starts with Capacity tokens and regains RefillTokens every
// RefillInterval.  Idle buckets are forgotten after TTL.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string // ip | ip_route | route
	Prefix         string // Redis key prefix
	Debug          bool   // log blocks and backend errors
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  The default lets one
// client toggle ten units in a burst, then one every two seconds.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 2*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    getenv("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "eqrl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	cfg.normalize()
	return cfg
}

// normalize clamps values the bucket cannot work with.  A bucket must
// outlive several refill intervals or it would reset to full on every
// request.
func (c *RateLimitConfig) normalize() {
	c.Capacity = max(c.Capacity, 1)
	c.RefillTokens = max(c.RefillTokens, 1)
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	c.TTL = max(c.TTL, 5*c.RefillInterval)
}
