package redis

import (
	"context"
	"fmt"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// luaSlidingWindow：Redis 滑动窗口限流（原子操作）
// KEYS[1]=限流key，ARGV[1]=当前毫秒时间戳，ARGV[2]=窗口开始毫秒时间戳，
// ARGV[3]=窗口毫秒数，ARGV[4]=成员，ARGV[5]=上限
// 返回：窗口内的请求数；超限返回 -1
var luaSlidingWindow = rd.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowMs = tonumber(ARGV[3])
local member = ARGV[4]

-- 删除窗口外的旧记录
redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

local count = redis.call('ZCARD', key)
if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('PEXPIRE', key, windowMs)
  return count + 1
else
  return -1
end
`)

// SlidingWindow 是基于有序集合的分布式限流器，多实例共享同一窗口。
type SlidingWindow struct {
	rdb    rd.Scripter
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewSlidingWindow(rdb rd.Scripter, limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{rdb: rdb, limit: limit, window: window, now: time.Now}
}

// Allow 记录一次请求并判断是否仍在窗口上限内。
func (s *SlidingWindow) Allow(ctx context.Context, key string) (bool, error) {
	now := s.now()
	nowMs := now.UnixMilli()
	windowMs := s.window.Milliseconds()
	// 同一毫秒内的多个请求需要不同成员，否则 ZADD 会覆盖。
	member := fmt.Sprintf("%d-%d", nowMs, now.UnixNano())

	res, err := luaSlidingWindow.Run(ctx, s.rdb, []string{key},
		nowMs, nowMs-windowMs, windowMs, member, s.limit).Int()
	if err != nil {
		return false, err
	}
	return res >= 0, nil
}
