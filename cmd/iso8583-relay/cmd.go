package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rzpsarthak13/iso8583-persistence/internal/logging"
	"github.com/rzpsarthak13/iso8583-persistence/internal/registry"
	"github.com/rzpsarthak13/iso8583-persistence/pkg/iso8583store"
)

const redacted = "********"

var (
	configPath      string
	listenAddr      string
	logLevel        string
	logFormat       string
	shutdownTimeout time.Duration
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "iso8583-relay",
		Short:         "Forward ISO 8583 mapper change events to a broker",
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML or JSON config file; ISO8583_STORE_* variables override it")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, console)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the relay until interrupted",
		Long:  `The run command drains the configured event queue, normally a Redis list shared with the services that save mappers, into the relay target and serves /health and /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, logging.New(logLevel, logFormat, cmd.ErrOrStderr()))
		},
	}
	runCmd.Flags().StringVar(&listenAddr, "listen", ":9090", "HTTP listen address")
	runCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "HTTP shutdown grace period")

	checkCmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and print it with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(redact(*cfg))
			if err != nil {
				return fmt.Errorf("error encoding config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	return rootCmd
}

func run(ctx context.Context, logger zerolog.Logger) error {
	logger = logger.With().Str("component", "relayd").Logger()

	client, err := iso8583store.NewClientFromEnv(ctx, configPath,
		iso8583store.WithLogger(logger),
		iso8583store.WithRegisterer(prometheus.DefaultRegisterer),
	)
	if err != nil {
		return fmt.Errorf("error creating client: %w", err)
	}
	defer client.Close()

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("error starting relay: %w", err)
	}
	defer client.Stop()

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           newMux(client.Stats),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", listenAddr).Msg("serving health and metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	stats := client.Stats()
	logger.Info().Int64("forwarded", stats.Forwarded).Int64("dropped", stats.Dropped).Int("queued", stats.Queued).Msg("relay stopped")
	return nil
}

func newMux(stats func() iso8583store.Stats) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler(stats))
	return mux
}

func loadConfig(path string) (*registry.InternalConfig, error) {
	cm := registry.NewConfigManager()
	if path != "" {
		if err := cm.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cm.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cm.GetConfig(), nil
}

func redact(cfg registry.InternalConfig) registry.InternalConfig {
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	mask(&cfg.Database.Password)
	for _, p := range []*registry.InternalPublisherConfig{&cfg.Events, &cfg.Relay.Target} {
		mask(&p.RedisConfig.Password)
		mask(&p.DynamoDBConfig.SecretAccessKey)
	}
	mask(&cfg.Export.SecretAccessKey)
	return cfg
}
