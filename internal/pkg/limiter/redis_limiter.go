package limiter

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"userdash/internal/pkg/logx"
)

const redisAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLimiter allows max requests per key in each fixed window.
type RedisLimiter struct {
	client  redisEvaler
	window  time.Duration
	max     int64
	prefix  string
	timeout time.Duration
}

// NewRedisLimiter returns a fixed-window limiter backed by client.
func NewRedisLimiter(client *redis.Client, window time.Duration, max int) *RedisLimiter {
	return newRedisLimiter(client, window, max)
}

func newRedisLimiter(client redisEvaler, window time.Duration, max int) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &RedisLimiter{
		client:  client,
		window:  window,
		max:     int64(max),
		prefix:  "userdash:rl:auth:",
		timeout: 500 * time.Millisecond,
	}
}

// Allow implements Limiter. Redis failures fail open so an outage of the
// limiter does not lock users out of login.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	count, err := l.client.Eval(ctx, redisAllowScript, []string{l.prefix + key}, l.window.Milliseconds()).Int64()
	if err != nil {
		logx.Warn("redis rate limiter unavailable, allowing request", "error", err.Error())
		return true
	}

	return count <= l.max
}
