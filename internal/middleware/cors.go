package middleware

import (
	"net/http"
	"strings"
)

// CORS 生成允许指定来源访问的跨域中间件。
// 列表中出现 "*" 时放开全部来源。
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		value := strings.TrimSpace(origin)
		if value == "" {
			continue
		}
		if value == "*" {
			allowAll = true
			break
		}
		allowed[value] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			grant := ""
			switch {
			case origin == "":
			case allowAll:
				grant = "*"
			default:
				if _, ok := allowed[origin]; ok {
					grant = origin
				}
			}

			if grant != "" {
				headers := w.Header()
				headers.Set("Access-Control-Allow-Origin", grant)
				headers.Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
				headers.Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
				headers.Set("Access-Control-Max-Age", "600")
				if grant != "*" {
					headers.Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions && grant != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
