package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	promAdapter "github.com/bft-labs/logship/internal/adapters/prometheus"
	"github.com/bft-labs/logship/internal/cliconfig"
	"github.com/bft-labs/logship/internal/source"
	logAdapter "github.com/bft-labs/logship/pkg/log"
	"github.com/bft-labs/logship/pkg/logship"
)

const longHelp = `Ship log lines to an append-only store without blocking the producer.

Lines are read from stdin, or from a file that is followed as it grows, wrapped
into JSON events and buffered. Buffered events are flushed in the background when
a count, byte or time threshold is reached.

Backends:
  immudb         rows in an immudb SQL table
  immudb-vault   documents in an immudb Vault collection
  kafka          messages on a Kafka topic

Configuration is read from $HOME/.logship/config.toml, then .env and LOGSHIP_*
environment variables, then flags. Later sources win.`

var exampleUsage = strings.TrimSpace(`
  myserver 2>&1 | logship --backend immudb --immudb-host db.internal
  logship --backend kafka --kafka-brokers k1:9092,k2:9092 --kafka-topic logs --file /var/log/app.log
  logship --backend immudb-vault --vault-token <token> --metrics-addr :9464
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger(os.Stderr, cfg.LogLevel)

	root := &cobra.Command{
		Use:          "logship",
		Short:        "Ship log lines to immudb, immudb Vault or Kafka",
		Long:         longHelp,
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if err := cliconfig.LoadDotEnv(".env"); err != nil {
				return fmt.Errorf("load .env: %w", err)
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log = cliconfig.Logger(os.Stderr, cfg.LogLevel)
			log.Info().Interface("config", cfg.Masked()).Msg("configuration")

			return run(cfg, log)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.logship/config.toml)")
	root.Flags().StringVar(&cfg.Name, "name", cfg.Name, "appender name used in logs")
	root.Flags().StringVar(&cfg.Backend, "backend", cfg.Backend, "storage backend: immudb, immudb-vault or kafka")

	root.Flags().StringVar(&cfg.File, "file", cfg.File, "file to follow (default: read stdin)")
	root.Flags().BoolVar(&cfg.FromStart, "from-start", cfg.FromStart, "ship lines already in --file")
	root.Flags().StringVar(&cfg.Source, "source", cfg.Source, "source attached to every event (default: file path or stdin)")
	root.Flags().StringVar(&cfg.Level, "level", cfg.Level, "level attached to every event")

	root.Flags().IntVar(&cfg.MaxPendingCount, "max-pending-count", cfg.MaxPendingCount, "flush after this many buffered payloads")
	root.Flags().IntVar(&cfg.MaxPendingBytes, "max-pending-bytes", cfg.MaxPendingBytes, "flush after this many buffered bytes")
	root.Flags().DurationVar(&cfg.SyncInterval, "sync-interval", cfg.SyncInterval, "flush when the last flush is older than this")
	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "deadline for the final flush on exit")

	root.Flags().StringVar(&cfg.ImmudbHost, "immudb-host", cfg.ImmudbHost, "immudb host")
	root.Flags().IntVar(&cfg.ImmudbPort, "immudb-port", cfg.ImmudbPort, "immudb port")
	root.Flags().StringVar(&cfg.ImmudbUser, "immudb-user", cfg.ImmudbUser, "immudb user")
	root.Flags().StringVar(&cfg.ImmudbPassword, "immudb-password", cfg.ImmudbPassword, "immudb password")
	root.Flags().StringVar(&cfg.ImmudbDatabase, "immudb-database", cfg.ImmudbDatabase, "immudb database")
	root.Flags().StringVar(&cfg.ImmudbTable, "immudb-table", cfg.ImmudbTable, "immudb table, created if missing")

	root.Flags().StringVar(&cfg.VaultURL, "vault-url", cfg.VaultURL, "immudb Vault base URL")
	root.Flags().StringVar(&cfg.VaultToken, "vault-token", cfg.VaultToken, "immudb Vault write token")
	root.Flags().StringVar(&cfg.VaultLedger, "vault-ledger", cfg.VaultLedger, "immudb Vault ledger")
	root.Flags().StringVar(&cfg.VaultCollection, "vault-collection", cfg.VaultCollection, "immudb Vault collection")
	root.Flags().DurationVar(&cfg.VaultTimeout, "vault-timeout", cfg.VaultTimeout, "immudb Vault HTTP timeout")

	root.Flags().StringVar(&cfg.KafkaBrokers, "kafka-brokers", cfg.KafkaBrokers, "comma separated Kafka brokers")
	root.Flags().StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka topic")

	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (disabled when empty)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("logship")
		os.Exit(1)
	}
}

func run(cfg cliconfig.Config, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := promAdapter.NewFlushMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	appender, err := logship.New(cfg.Library(),
		logship.WithLogger(logAdapter.NewZerologAdapterWithLogger(log)),
		logship.WithEventHandler(metrics),
	)
	if err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = serveMetrics(cfg.MetricsAddr, reg, log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ship := func(line []byte) error {
		err := appender.AppendEvent(logship.Event{
			Time:    time.Now(),
			Level:   cfg.Level,
			Message: string(line),
			Source:  cfg.Source,
		})
		if errors.Is(err, logship.ErrClosed) {
			return err
		}
		if err != nil {
			log.Warn().Err(err).Msg("skip line")
		}
		return nil
	}

	doneCh := make(chan error, 1)
	if cfg.File != "" {
		follower, err := source.Follow(cfg.File, cfg.FromStart, logAdapter.NewZerologAdapterWithLogger(log))
		if err != nil {
			_ = appender.Close(context.Background())
			return err
		}
		go func() { doneCh <- follower.Run(ctx, ship) }()
		log.Info().Str("file", cfg.File).Bool("from_start", cfg.FromStart).Msg("following file")
	} else {
		go func() { doneCh <- source.ReadLines(ctx, os.Stdin, ship) }()
		log.Info().Msg("reading stdin")
	}

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
	case runErr = <-doneCh:
		if runErr != nil {
			log.Error().Err(runErr).Msg("source stopped")
		} else {
			log.Info().Msg("input finished")
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	closeErr := appender.Close(shutdownCtx)
	if closeErr != nil {
		log.Error().Err(closeErr).Msg("close appender")
	}
	log.Info().
		Int64("dropped", appender.Dropped()).
		Int("pending", appender.Pending()).
		Msg("appender closed")

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("stop metrics server")
		}
	}

	return errors.Join(runErr, closeErr)
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return srv
}
