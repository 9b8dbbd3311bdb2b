package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"rain-check/internal/bootstrap"
	"rain-check/internal/config"
	"rain-check/internal/observability"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}

	publishers, err := bootstrap.InitPublishers(ctx, cfg)
	if err != nil {
		slog.Error("event publishers setup failed", "error", err)
		os.Exit(1)
	}

	handlers := bootstrap.InitHandlers(cfg, publishers.Publisher)
	r := bootstrap.InitRoutes(handlers.WeatherCheckHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WeatherTimeout + 3*cfg.LLMTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("rain-check started", "port", cfg.Port, "model", cfg.OpenAIModel)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	bootstrap.WaitForShutdown(srv,
		func(ctx context.Context) {
			if err := handlers.CheckService.Drain(ctx); err != nil {
				slog.Warn("estimation events still in flight at shutdown", "error", err)
			}
			publishers.Close()
		},
		func(ctx context.Context) {
			if err := shutdownTracing(ctx); err != nil {
				slog.Error("tracer shutdown error", "error", err)
			}
		},
	)
}
