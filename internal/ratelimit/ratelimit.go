// Package ratelimit throttles booking and contact submissions per client.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Middleware rejects requests over the limit with 429. When the limiter
// itself fails, failOpen lets the request through.
func Middleware(l Limiter, logger *slog.Logger, failOpen bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			if logger != nil {
				logger.Warn("rate limiter error", "err", err)
			}
			if failOpen {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiter unavailable"})
			return
		}
		if !ok {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}
		c.Next()
	}
}

// Memory is a per-process token bucket per key.
type Memory struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
	swept    time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemory allows perMinute requests per minute per key, all of which may be
// spent at once.
func NewMemory(perMinute int) *Memory {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &Memory{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idle:     10 * time.Minute,
		now:      time.Now,
		visitors: map[string]*visitor{},
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	v := m.visitors[key]
	if v == nil {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}

// sweep drops visitors idle for longer than m.idle, at most once per idle period.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.swept) < m.idle {
		return
	}
	m.swept = now
	for k, v := range m.visitors {
		if now.Sub(v.lastSeen) > m.idle {
			delete(m.visitors, k)
		}
	}
}

// Redis is a fixed-window counter shared by every instance.
type Redis struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

func NewRedis(rdb *redis.Client, limit int, window time.Duration, prefix string) *Redis {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &Redis{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	count, err := r.incr(ctx, r.prefix+":"+key)
	if err != nil {
		return false, err
	}
	return count <= int64(r.limit), nil
}

func (r *Redis) incr(ctx context.Context, key string) (int64, error) {
	res, err := fixedWindowScript.Run(ctx, r.rdb, []string{key}, r.window.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}

// ReadyCheck pings Redis.
func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
