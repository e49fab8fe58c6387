package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobsvc/internal/app/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	// 2. 初始化应用
	app, cleanup, err := InitializeApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer cleanup()

	// 3. 创建 HTTP Server
	addr := fmt.Sprintf(":%s", cfg.GetServerPort())
	server := &http.Server{
		Addr:    addr,
		Handler: app.Engine,
	}

	// 4. 启动过期扫描（后台 goroutine）
	sweeperCtx, cancelSweeper := context.WithCancel(context.Background())
	sweeperErrChan := make(chan error, 1)
	if app.Sweeper != nil {
		go func() {
			sweeperErrChan <- app.Sweeper.Start(sweeperCtx)
		}()
	}

	// 5. 启动 HTTP Server（后台 goroutine）
	serverErrChan := make(chan error, 1)
	go func() {
		app.Logger.Infof(context.Background(), "Starting HTTP server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	// 6. 优雅停机处理
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Println("Received shutdown signal, gracefully shutting down...")
		gracefulShutdown(server, cancelSweeper, sweeperErrChan, app.Sweeper != nil)
	case err := <-serverErrChan:
		cancelSweeper()
		log.Printf("HTTP server error: %v", err)
	case err := <-sweeperErrChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Sweeper error: %v", err)
		}
		gracefulShutdown(server, cancelSweeper, nil, false)
	}

	log.Println("Application stopped")
}

// gracefulShutdown 先停扫描再停 HTTP，等待进行中的请求完成
func gracefulShutdown(server *http.Server, cancelSweeper context.CancelFunc, sweeperDone <-chan error, waitSweeper bool) {
	log.Println("Stopping sweeper...")
	cancelSweeper()
	if waitSweeper {
		select {
		case <-sweeperDone:
		case <-time.After(5 * time.Second):
			log.Println("Sweeper did not stop in time")
		}
	}

	log.Println("Stopping HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped gracefully")
	}
}
