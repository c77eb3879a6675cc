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

	"github.com/ignite/ad-insights/internal/api"
	"github.com/ignite/ad-insights/internal/app"
	"github.com/ignite/ad-insights/internal/config"
	"github.com/ignite/ad-insights/internal/pkg/logger"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w", addr, err)
	}
	return ln.Close()
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fatal("failed to load config", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	defer logger.Sync()

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	if err := checkPortAvailable(addr); err != nil {
		fatal("pre-flight check failed", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fatal("failed to initialize", err)
	}
	if err := a.Start(ctx); err != nil {
		a.Close()
		fatal("failed to start background work", err)
	}

	router := api.SetupRoutes(a.Handlers(), api.RouterOptions{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Health:         a.HealthChecker(),
		Metrics:        a.Metrics,
	})
	server := api.NewServer(router)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("[server] listening", "addr", addr, "version", app.Version)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()

	<-done
	logger.Info("[server] shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("[server] shutdown error", "error", err)
	}
	a.Shutdown(shutdownCtx)
	logger.Info("[server] stopped")
}

func fatal(msg string, err error) {
	logger.Error("[server] "+msg, "error", err)
	logger.Sync()
	os.Exit(1)
}
