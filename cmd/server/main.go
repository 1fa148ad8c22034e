package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/csg33k/statutory-payroll/internal/adapters/ecr"
	sqliteadapter "github.com/csg33k/statutory-payroll/internal/adapters/sqlite"
	"github.com/csg33k/statutory-payroll/internal/adapters/tds"
	"github.com/csg33k/statutory-payroll/internal/config"
	"github.com/csg33k/statutory-payroll/internal/handlers"
	"github.com/csg33k/statutory-payroll/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	repo, err := sqliteadapter.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "db", cfg.DBPath, "err", err)
		os.Exit(1)
	}
	defer repo.Close()

	h := handlers.New(repo, ecr.New(), tds.New(), metrics.New(prometheus.DefaultRegisterer), logger).
		WithDefaultEstablishment(cfg.EstablishmentID)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("statutory payroll server running", "addr", cfg.Addr(), "db", cfg.DBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
