package middleware

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"tw-vote-map/internal/logger"
)

// 文档注释：令牌桶限流中间件（每秒）
// 背景：快照渲染与栅格化开销较大，在流量峰值时对入口进行限速，避免 CPU 被占满；按环境变量开关与速率配置。
// 约束：简化实现，不做队列排队，仅丢弃并返回 429；已建立的 WebSocket 会话不受影响。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	now      func() time.Time
	mu       sync.Mutex
}

// NewTokenBucket：每秒补满 qps 个令牌
func NewTokenBucket(qps int) *TokenBucket {
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Limit：以令牌桶包装处理器
func Limit(tb *TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.allow() {
			logger.L().Debug("rate_limited", "path", r.URL.Path, "ip", r.RemoteAddr)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Wrap：RATE_LIMIT_ENABLED=true 时按 RATE_LIMIT_QPS（默认 200）限流，否则原样返回
func Wrap(next http.Handler) http.Handler {
	if os.Getenv("RATE_LIMIT_ENABLED") != "true" {
		return next
	}
	qps := 200
	if s := os.Getenv("RATE_LIMIT_QPS"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			qps = n
		}
	}
	logger.L().Info("rate_limit_enabled", "qps", qps)
	return Limit(NewTokenBucket(qps), next)
}
