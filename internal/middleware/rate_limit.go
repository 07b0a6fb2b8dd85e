package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimit 限制同一来源在指定窗口内的请求数量。
// maxRequests 或 window 非法时中间件退化为直通。
func RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	if maxRequests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := &visitorLimiter{
		maxRequests: maxRequests,
		window:      window,
		visitors:    make(map[string]*visitor),
	}

	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(visitorKey(r)) {
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// visitorLimiter 按来源做固定窗口计数。
type visitorLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	maxRequests int
	window      time.Duration
}

type visitor struct {
	count     int
	windowEnd time.Time
}

func (l *visitorLimiter) allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok || now.After(v.windowEnd) {
		l.visitors[key] = &visitor{count: 1, windowEnd: now.Add(l.window)}
		// 偶发清理过期来源，避免表无限增长
		if len(l.visitors) > 1024 {
			for k, old := range l.visitors {
				if now.After(old.windowEnd) {
					delete(l.visitors, k)
				}
			}
		}
		return true
	}

	if v.count >= l.maxRequests {
		return false
	}

	v.count++
	return true
}

// visitorKey 优先取 X-Forwarded-For 的第一跳，否则用连接来源地址。
func visitorKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
