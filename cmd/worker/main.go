// Command worker runs the scheduled recompute and keyword monitoring
// without serving the API. Jobs queued by an API process are not visible
// here; only cron-driven work runs.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/ad-insights/internal/app"
	"github.com/ignite/ad-insights/internal/config"
	"github.com/ignite/ad-insights/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	once := flag.Bool("once", false, "run one recompute and exit")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fatal("failed to load config", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fatal("failed to initialize", err)
	}

	if *once {
		err := a.Recompute.Run(ctx)
		a.Close()
		if err != nil {
			fatal("recompute failed", err)
		}
		return
	}

	if cfg.Schedule.RecomputeCron == "" && !cfg.Schedule.MonitoringEnabled {
		logger.Warn("[worker] nothing scheduled; set schedule.recompute_cron or schedule.monitoring_enabled")
	}
	if err := a.Start(ctx); err != nil {
		a.Close()
		fatal("failed to start", err)
	}
	logger.Info("[worker] started", "jobs", a.Scheduler.Len())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("[worker] shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer shutdownCancel()
	a.Shutdown(shutdownCtx)
	logger.Info("[worker] stopped")
}

func fatal(msg string, err error) {
	logger.Error("[worker] "+msg, "error", err)
	logger.Sync()
	os.Exit(1)
}
