package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusdesk/internal/server"
	"campusdesk/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultConfigPath = "configs/campusdesk.yaml"
	initTimeout       = 30 * time.Second
)

func main() {
	configPath := flag.String("config", configPathFromEnv(), "Path to config file")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Error(context.Background(), "campusdesk stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *server.Config) error {
	gin.SetMode(gin.ReleaseMode)

	initCtx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	deps, err := server.InitDependencies(initCtx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := deps.Close(); closeErr != nil {
			logger.Error(context.Background(), "close dependencies failed", zap.Error(closeErr))
		}
	}()

	srv, err := server.New(cfg, deps)
	if err != nil {
		return err
	}
	httpServer := srv.HTTPServer()

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("init http listener failed: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "campusdesk http server started",
			zap.String("addr", cfg.Server.Addr),
			zap.String("base_path", cfg.Server.BasePath),
			zap.String("database", cfg.Database.Driver))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server stopped: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

func configPathFromEnv() string {
	if path := os.Getenv("CAMPUSDESK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
