package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	rediskey "sweet_shop/pkg/redis"
)

// Limiter 判断某个 key 的请求是否放行。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit 购买接口限流：按已认证用户 ID，无身份时按 IP。
// 后端出错时放行（降级策略），只记录日志。
func RateLimit(l Limiter, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if id, ok := IdentityFrom(c); ok {
			key = rediskey.PurchaseRateLimitKey(id.UserID)
		} else {
			key = rediskey.ClientRateLimitKey(c.ClientIP())
		}

		allowed, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", "1")
			abortTooManyRequests(c)
			return
		}
		c.Next()
	}
}

// LocalLimiter 是进程内令牌桶，未配置 Redis 时使用；多实例之间不共享配额。
type LocalLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idle    time.Duration
	buckets map[string]*bucket
	sweepAt time.Time
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter 允许每个 key 在 window 内最多 limit 次，突发上限同为 limit。
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		limit:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		idle:    10 * window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1), nil
}

// sweep 定期清理长时间未访问的 key，避免 map 无限增长。
func (l *LocalLimiter) sweep(now time.Time) {
	if now.Before(l.sweepAt) {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, k)
		}
	}
	l.sweepAt = now.Add(l.idle)
}

func (l *LocalLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
