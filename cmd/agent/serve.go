package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"

	"github.com/omnirevenue/agent/core"
)

func serveCmd() *cobra.Command {
	var (
		port   int
		driver string
		dbDSN  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP server and briefing scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx, core.Config{
				HTTP:     core.HTTPConfig{Port: port},
				Database: core.DatabaseConfig{Driver: driver, DSN: dbDSN},
			})
			if err != nil {
				return err
			}

			_, logger := glog.Resolve(cfg.ServiceName, nil, nil)
			logger = glog.Ensure(logger)

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			a.scheduler.Start()

			addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
			server := &http.Server{
				Addr:              addr,
				Handler:           a.server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening on " + addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("agent: serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("agent: shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP listen port")
	cmd.Flags().StringVar(&driver, "db-driver", "", "database driver (sqlite3 or postgres)")
	cmd.Flags().StringVar(&dbDSN, "db-dsn", "", "database DSN")

	return cmd
}
