package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/duetask/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Long: `Run the webhook server that receives task change events.

Examples:
  duetask serve
  duetask serve --addr :9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr != "" {
				cfg.Server.Addr = addr
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if sweeper := a.Sweeper(); sweeper != nil {
				sweeper.Start()
				defer sweeper.Stop()
			}

			server := a.Server()
			errCh := make(chan error, 1)
			go func() {
				logger.InfoLog(ctx, "listening on %s%s", cfg.Server.Addr, cfg.Server.Path)
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				logger.ErrorLog(ctx, "webhook server stopped: %v", err)
				return err
			case <-ctx.Done():
			}

			logger.InfoLog(ctx, "shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}
