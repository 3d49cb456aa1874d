package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/film-catalog/internal/config"
    "github.com/iliyamo/film-catalog/internal/logging"
)

// takeToken refills the bucket in KEYS[1] by whole intervals and takes one
// token.  ARGV: now_ms, capacity, refill, interval_ms, ttl_s.
// Reply: {allowed (0|1), remaining, retry_after_ms}.
var takeToken = redis.NewScript(`
local now, cap, refill, every, ttl =
    tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local b = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens, at = tonumber(b[1]) or cap, tonumber(b[2]) or now

if every > 0 and refill > 0 and now > at then
    local n = math.floor((now - at) / every)
    tokens = math.min(cap, tokens + n * refill)
    at = at + n * every
end

local ok, wait = 0, 0
if tokens >= 1 then
    ok, tokens = 1, tokens - 1
else
    wait = math.max(0, every - (now - at))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// NewTokenBucket limits requests per key (see buildRateKey) with a Redis
// token bucket.  Redis failures let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    limit := strconv.Itoa(cfg.Capacity)
    ttl := int64(cfg.TTL / time.Second)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            reply, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), ttl,
            ).Int64Slice()
            if err != nil || len(reply) != 3 {
                logging.Warn().Err(err).Str("key", key).Msg("rate limit check failed")
                return next(c)
            }
            allowed, remaining, retryMs := reply[0] == 1, reply[1], reply[2]

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if allowed {
                return next(c)
            }

            secs := int(math.Ceil(float64(retryMs) / 1000))
            h.Set("Retry-After", strconv.Itoa(secs))
            logging.Debug().Str("key", key).Int64("retry_ms", retryMs).Msg("rate limited")
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

// buildRateKey names the bucket for c under cfg.Prefix.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "user":
        parts = append(parts, "user", currentUserID(c))
    case "ip_route":
        parts = append(parts, "ip", ip, "route", c.Request().Method+" "+c.Path())
    default:
        parts = append(parts, "ip", ip)
    }
    return strings.Join(parts, ":")
}
