package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// WaitForShutdown blocks until SIGINT/SIGTERM, then stops the server and
// runs the cleanup functions in order.
func WaitForShutdown(srv *http.Server, cleanup ...func(context.Context)) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	for _, fn := range cleanup {
		fn(ctx)
	}
}
