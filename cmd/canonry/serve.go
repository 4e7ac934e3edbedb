package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/canonry/canonry"
	"github.com/canonry/canonry/internal/cli"
	"github.com/canonry/canonry/internal/logging"
	"github.com/canonry/canonry/internal/presentation/tui"
	httpAdapter "github.com/canonry/canonry/pkg/adapters/http"
	redisAdapter "github.com/canonry/canonry/pkg/adapters/redis"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation HTTP server",
	Long: `Starts the engine in server mode, exposing validation, graph audits and
condition evaluation as a JSON API. Stage timings and validation outcomes
are exported as Prometheus metrics on /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		level, _ := cmd.Flags().GetString("log-level")
		noMetrics, _ := cmd.Flags().GetBool("no-metrics")

		logger := logging.New(logging.Parse(level))

		metrics, err := observability.New(nil)
		if err != nil {
			fmt.Printf("Error registering metrics: %v\n", err)
			os.Exit(1)
		}

		sink := observability.Fanout(metrics, observability.LogSink(logger))
		engine, _, err := engineFromFlags(cmd, canonry.WithTimingSink(sink), canonry.WithLogger(logger))
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		// Background context for cache invalidation and shutdown.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if cache, ok := engine.Provider().(*redisAdapter.Cache); ok {
			if err := cache.AutoInvalidate(ctx); err != nil {
				logger.Warn("cache auto-invalidation unavailable", "err", err)
			}
		}

		mux := http.NewServeMux()
		mux.Handle("/", httpAdapter.NewHandler(&metricsEngine{Engine: engine, metrics: metrics}, logger))
		if !noMetrics {
			mux.Handle("/metrics", promhttp.Handler())
		}

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			tui.PrintBanner()
			logger.Info("Canonry server listening", "addr", srv.Addr, "version", strings.TrimSpace(canonry.Version))
			serverErrors <- srv.ListenAndServe()
		}()

		sigCtx := cli.NewSignalContext(ctx)
		defer sigCtx.Cancel()

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case <-sigCtx.Done():
			logger.Info("Shutting down", "signal", fmt.Sprint(sigCtx.Signal()))

			// Give outstanding requests a deadline for completion.
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			logger.Info("Canonry server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	serveCmd.Flags().Bool("no-metrics", false, "Disable the /metrics endpoint")
}

// metricsEngine decorates the engine so every served validation lands in the
// outcome counters, not just its stage timings.
type metricsEngine struct {
	*canonry.Engine
	metrics *observability.Metrics
}

func (m *metricsEngine) ValidatePathway(ctx context.Context, pw *domain.Pathway, ectx domain.EvaluationContext) (*domain.ValidationReport, error) {
	report, err := m.Engine.ValidatePathway(ctx, pw, ectx)
	m.metrics.ObserveReport(report)
	return report, err
}

func (m *metricsEngine) AuditFandom(ctx context.Context, fandomID string) (*domain.ValidationReport, error) {
	report, err := m.Engine.AuditFandom(ctx, fandomID)
	m.metrics.ObserveReport(report)
	return report, err
}
