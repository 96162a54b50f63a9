// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-storedconfig.
//
// go-storedconfig is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-storedconfig/internal/rest"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/health"
	"github.com/jeremyhahn/go-storedconfig/pkg/metrics"
)

// shutdownTimeout bounds graceful shutdown of the REST server
const shutdownTimeout = 30 * time.Second

// newServeCmd builds the serve command
func newServeCmd(cfg *Config) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Long: `Serve the configured document over the REST API until SIGINT or
SIGTERM is received.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := cfg.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				conf.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				conf.Server.Port = port
			}
			if err := conf.Validate(); err != nil {
				return err
			}

			sess, err := cfg.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			locale, err := conf.LocaleTag()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			metricsPath := ""
			if conf.Metrics.Enabled {
				metricsPath = conf.Metrics.Path
				collector := metrics.StartResourceCollector(ctx, conf.Metrics.CollectorInterval)
				defer collector.Stop()
			} else {
				metrics.Disable()
			}

			checker := health.NewChecker()
			checker.RegisterCheck("storage", health.StorageCheck(sess.backend))
			checker.RegisterCheck("document", health.DocumentCheck(sess.store, conf.Document.Name))

			limiter := conf.NewRateLimiter()
			defer limiter.Stop()

			server, err := rest.NewServer(&rest.Config{
				Addr:          conf.Addr(),
				Store:         sess.store,
				Document:      conf.Document.Name,
				Version:       Version,
				Locale:        locale,
				MetricsPath:   metricsPath,
				HealthChecker: checker,
				Authenticator: conf.NewAuthenticator(),
				Auditor:       conf.NewAuditor(sess.log),
				RateLimiter:   limiter,
				Logger:        sess.log,
				ReadTimeout:   conf.Server.ReadTimeout,
				WriteTimeout:  conf.Server.WriteTimeout,
			})
			if err != nil {
				return err
			}

			errChan := make(chan error, 1)
			go func() {
				errChan <- server.Start()
			}()

			sess.log.Info("REST server started",
				logger.String("addr", conf.Addr()),
				logger.String("document", conf.Document.Name),
				logger.String("storage", conf.Storage.Backend),
				logger.Bool("rate_limit", limiter.IsEnabled()))

			// Wait for shutdown signal or error
			select {
			case <-ctx.Done():
				sess.log.Info("Shutdown signal received")
			case err := <-errChan:
				if err != nil {
					sess.log.Error("Server error", logger.Error(err))
					return err
				}
				return nil
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				return err
			}
			return <-errChan
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}
