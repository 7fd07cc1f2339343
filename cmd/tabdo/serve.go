package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tgienger/tabdo/internal/api"
	"github.com/tgienger/tabdo/internal/auth"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API server.

Examples:
  tabdo serve
  tabdo serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, svc, err := openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Store().Close()

			if addr == "" {
				addr = cfg.Server.Addr
			}
			secret, err := auth.LoadOrInitSecret(cfg.Server.SecretPath)
			if err != nil {
				return err
			}
			tokens := auth.NewTokens(secret, cfg.Server.SessionTTL)

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(svc, tokens, cfg.Server.SessionTTL),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s (store: %s)", addr, cfg.Store.Backend)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Printf("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
