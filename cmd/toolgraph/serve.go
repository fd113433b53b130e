package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/toolgraph/internal/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent over HTTP",
		Long: `Starts an HTTP server answering one question at a time:

  POST /v1/ask          {"question": "..."}
  GET  /v1/graph        Mermaid diagram, ?run_id= highlights a run
  GET  /v1/runs/{id}    journal entries of a run
  GET  /healthz
  GET  /metrics         Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ag, store, err := a.newAgent(ctx)
			if err != nil {
				return err
			}
			opts := []server.Option{server.WithLogger(a.logger)}
			if store != nil {
				opts = append(opts, server.WithJournal(store))
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(ag, ag.Graph(), opts...).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(ctx, a.logger, srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from TOOLGRAPH_SERVER_ADDR or :8080)")
	return cmd
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, logger *slog.Logger, srv *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("graceful shutdown did not complete in %s: %w", shutdownTimeout, err)
	}
	return nil
}
