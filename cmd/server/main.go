package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"freightops/internal/adapters/cli"
	"freightops/internal/logging"
)

// server is the long-running API binary; it is equivalent to `app serve`.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Serve(ctx); err != nil {
		logger := logging.WithComponent("server")
		logger.Error().Err(err).Msg("server exited")
		stop()
		os.Exit(1)
	}
}
