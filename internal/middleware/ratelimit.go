package middleware

import (
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"
    "golang.org/x/time/rate"

    "github.com/iliyamo/equipment-control/internal/config"
)

// bucketScript takes one token from the bucket at KEYS[1].
// ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_s.
// Returns {allowed, remaining, retry_ms}.
var bucketScript = redis.NewScript(`
local now, cap, add, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 't', 'at')
local tokens, at = tonumber(b[1]) or cap, tonumber(b[2]) or now
local steps = math.floor(math.max(0, now - at) / every)
if steps > 0 then
  tokens = math.min(cap, tokens + steps * add)
  at = at + steps * every
end
local ok, wait = 0, 0
if tokens >= 1 then
  ok, tokens = 1, tokens - 1
else
  wait = math.max(0, every - (now - at))
end
redis.call('HSET', KEYS[1], 't', tokens, 'at', at)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// MsgRateLimited is the message of a throttled dispatch.
const MsgRateLimited = "rate limit exceeded"

// take reports whether one request under key may proceed.
type take func(c echo.Context, key string) (allowed bool, remaining int64, retry time.Duration, err error)

// NewTokenBucket limits how often one client may hit the dispatch endpoint.
// Buckets live in Redis when rdb is non-nil so that every replica shares
// them, otherwise in process memory.  Backend errors let the request
// through: the limiter must never be what stops someone switching a unit off.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    if log == nil {
        log = zap.NewNop()
    }
    takeFn := memoryBucket(cfg)
    if rdb != nil {
        takeFn = redisBucket(cfg, rdb)
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            allowed, remaining, retry, err := takeFn(c, key)
            if err != nil {
                if cfg.Debug {
                    log.Warn("rate limit backend error", zap.String("key", key), zap.Error(err))
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if allowed {
                return next(c)
            }

            secs := int(math.Ceil(retry.Seconds()))
            h.Set("Retry-After", strconv.Itoa(secs))
            if cfg.Debug {
                log.Info("rate limit exceeded", zap.String("key", key), zap.Duration("retry", retry))
            }
            // The dispatch contract answers every failure with 200 and a
            // "failed" status; Retry-After carries the wait.
            return c.JSON(http.StatusOK, echo.Map{
                "status":  "failed",
                "message": MsgRateLimited,
            })
        }
    }
}

func redisBucket(cfg config.RateLimitConfig, rdb *redis.Client) take {
    return func(c echo.Context, key string) (bool, int64, time.Duration, error) {
        res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
            time.Now().UnixMilli(),
            cfg.Capacity,
            cfg.RefillTokens,
            cfg.RefillInterval.Milliseconds(),
            int64(cfg.TTL.Seconds()),
        ).Int64Slice()
        if err != nil {
            return false, 0, 0, err
        }
        if len(res) != 3 {
            return false, 0, 0, fmt.Errorf("rate limit script returned %d values", len(res))
        }
        return res[0] == 1, res[1], time.Duration(res[2]) * time.Millisecond, nil
    }
}

// memoryBucket keeps one rate.Limiter per key and forgets keys idle for
// longer than cfg.TTL.
func memoryBucket(cfg config.RateLimitConfig) take {
    type bucket struct {
        lim  *rate.Limiter
        used time.Time
    }
    var (
        mu      sync.Mutex
        buckets = map[string]*bucket{}
        swept   = time.Now()
        every   = rate.Every(cfg.RefillInterval / time.Duration(cfg.RefillTokens))
    )

    return func(_ echo.Context, key string) (bool, int64, time.Duration, error) {
        now := time.Now()
        mu.Lock()
        defer mu.Unlock()

        if now.Sub(swept) > cfg.TTL {
            for k, b := range buckets {
                if now.Sub(b.used) > cfg.TTL {
                    delete(buckets, k)
                }
            }
            swept = now
        }

        b, ok := buckets[key]
        if !ok {
            b = &bucket{lim: rate.NewLimiter(every, cfg.Capacity)}
            buckets[key] = b
        }
        b.used = now

        r := b.lim.ReserveN(now, 1)
        if wait := r.DelayFrom(now); wait > 0 {
            r.CancelAt(now)
            return false, 0, wait, nil
        }
        return true, int64(b.lim.TokensAt(now)), 0, nil
    }
}

// rateKey groups requests into buckets.  The dispatch endpoint is public,
// so client IP is the only stable identity.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()

    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = []string{"ip", ip}
    case "route":
        parts = []string{"route", route}
    default: // ip_route
        parts = []string{"ip", ip, "route", route}
    }
    return cfg.Prefix + ":" + strings.Join(parts, ":")
}
