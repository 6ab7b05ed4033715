package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	webAdapter "freightops/internal/adapters/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Serve(cmd.Context())
		},
	}
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context) error {
	rt, err := openRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := webAdapter.NewHandler(rt.svc, webAdapter.Options{
		AllowedOrigins: rt.cfg.AllowedOrigins,
		Logger:         rt.logger,
		Metrics:        rt.metrics,
	})

	srv := &http.Server{
		Addr:         ":" + rt.cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  rt.cfg.HTTPReadTimeout,
		WriteTimeout: rt.cfg.HTTPWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	rt.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
