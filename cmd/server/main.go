package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"filebin/internal/api"
	"filebin/internal/blob"
	"filebin/internal/config"
	"filebin/internal/logging"
	"filebin/internal/registry"
	"filebin/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New()
	logger.Println("配置加载完成，开始启动服务")

	store, err := blob.NewStore(cfg.StorageDir)
	if err != nil {
		logger.Fatalf("初始化存储失败: %v", err)
	}

	// 注册表与进程同生命周期，不做持久化；重启后由客户端重新上传
	reg := registry.New()

	fileService := service.NewFileService(reg, store, logger)
	fileHandler := api.NewFileHandler(fileService, cfg.MaxUploadBytes, logger)
	router := api.NewRouter(cfg, fileHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		Handler:      router,
	}

	logger.Printf("服务监听端口 :%s，存储目录 %s\n", cfg.HTTPPort, store.Dir())

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("监听失败: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("优雅关闭失败: %v", err)
	}

	logger.Println("服务已停止")
}
