package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// loginLimiter 按 IP 记录窗口内的尝试时间
// 过期数据在请求路径上按 sweepEvery 间隔顺带清理，不启动后台协程
type loginLimiter struct {
	mu          sync.Mutex
	store       map[string][]time.Time
	maxAttempts int
	window      time.Duration
	sweepEvery  time.Duration
	lastSweep   time.Time
}

func newLoginLimiter(maxAttempts int, window time.Duration) *loginLimiter {
	sweepEvery := window
	if sweepEvery < time.Minute {
		sweepEvery = time.Minute
	}
	return &loginLimiter{
		store:       make(map[string][]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		sweepEvery:  sweepEvery,
		lastSweep:   time.Now(),
	}
}

// allow 记录一次尝试，超过限制时返回 false
func (l *loginLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.sweepEvery {
		l.sweep(now)
	}

	ts := pruneBefore(l.store[ip], now.Add(-l.window))
	if len(ts) >= l.maxAttempts {
		l.store[ip] = ts
		return false
	}
	l.store[ip] = append(ts, now)
	return true
}

// sweep 移除所有已过期的 IP 记录，调用方持有锁
func (l *loginLimiter) sweep(now time.Time) {
	cutoff := now.Add(-l.window)
	for ip, ts := range l.store {
		if kept := pruneBefore(ts, cutoff); len(kept) == 0 {
			delete(l.store, ip)
		} else {
			l.store[ip] = kept
		}
	}
	l.lastSweep = now
}

// LoginRateLimit 登录、注册接口限流中间件
// 每个 IP 在 window 内最多 maxAttempts 次尝试，超过则返回 429
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	limiter := newLoginLimiter(maxAttempts, window)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.allow(ip, time.Now()) {
			log.Warn().Str("ip", ip).Str("path", c.FullPath()).Msg("登录尝试过于频繁")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "登录尝试过于频繁，请稍后再试",
			})
			return
		}
		c.Next()
	}
}

// pruneBefore 原地移除 cutoff 之前的时间戳
func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
