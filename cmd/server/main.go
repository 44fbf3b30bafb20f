package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insighthub/internal/platform/config"
	"insighthub/internal/platform/httpserver"
	"insighthub/internal/platform/logger"
)

// main loads configuration, builds the dependency graph and runs the HTTP
// server until SIGINT or SIGTERM. Business logic lives in internal packages.
func main() {
	migrate := flag.Bool("migrate", false, "apply embedded schema migrations before serving")
	seed := flag.Bool("seed", false, "upsert the playbook catalog into the database before serving")
	flag.Parse()

	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := build(ctx, cfg, log, buildOptions{migrate: *migrate, seed: *seed})
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer svc.close()

	srv := httpserver.New(cfg.Server.Addr, svc.router, cfg.Server.RequestTimeout)
	go func() {
		log.Info("starting insighthub", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	svc.drain(shutdownCtx)
}
