package api

import (
	"net/http"

	"filebin/internal/config"
	fbmiddleware "filebin/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 构建 HTTP 路由，集中注册所有对外服务的端点。
func NewRouter(cfg *config.Config, fileHandler *FileHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(fbmiddleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(fbmiddleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
	r.Use(fbmiddleware.Metrics())

	// Prometheus 指标端点
	r.Handle("/metrics", promhttp.Handler())

	if fileHandler != nil {
		r.Route("/api", fileHandler.RegisterRoutes)
	}

	// API 之外的路径交给前端静态资源
	static := StaticHandler(cfg.WebDir)
	r.Get("/*", static)
	r.NotFound(static)

	return r
}
