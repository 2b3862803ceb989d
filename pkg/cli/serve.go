package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/portmock/pkg/admin"
	"github.com/getmockd/portmock/pkg/config"
	"github.com/getmockd/portmock/pkg/engine"
	"github.com/getmockd/portmock/pkg/logging"
	"github.com/getmockd/portmock/pkg/metrics"
	"github.com/getmockd/portmock/pkg/ratelimit"
	"github.com/getmockd/portmock/pkg/requestlog"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	configFile         string
	host               string
	adminHost          string
	adminPort          int
	logLevel           string
	logFormat          string
	maxLogEntries      int
	streamWriteTimeout time.Duration
	adminRateLimit     float64
}

func newServeCmd(info BuildInfo) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start listeners and the admin API (foreground)",
		Example: `  # Serve the listeners of a config file
  portmock serve --config mocks.yaml

  # Start with no listeners and add them through the admin API
  portmock serve --admin-port 4290

  # Verbose JSON logs
  portmock serve -c mocks.toml --log-level debug --log-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, f, info)
		},
	}

	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to a YAML, TOML or JSON config file")
	cmd.Flags().StringVar(&f.host, "host", "", "Bind address for mock listeners (default all interfaces)")
	cmd.Flags().StringVar(&f.adminHost, "admin-host", "127.0.0.1", "Bind address for the admin API")
	cmd.Flags().IntVarP(&f.adminPort, "admin-port", "a", DefaultAdminPort, "Admin API port (-1 disables the admin API)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
	cmd.Flags().IntVar(&f.maxLogEntries, "max-log-entries", requestlog.DefaultMaxEntries, "Maximum request log entries kept in memory")
	cmd.Flags().Float64Var(&f.adminRateLimit, "admin-rate-limit", 0, "Admin API requests per second per client IP (0 disables)")
	cmd.Flags().DurationVar(&f.streamWriteTimeout, "stream-write-timeout", 10*time.Second, "Per-chunk write deadline for streaming clients (0 disables)")
	return cmd
}

func runServe(ctx context.Context, f *serveFlags, info BuildInfo) error {
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(f.logLevel),
		Format: logging.ParseFormat(f.logFormat),
		Output: os.Stderr,
	})

	var file *config.File
	if f.configFile != "" {
		var err error
		file, err = config.LoadFromFile(f.configFile)
		if err != nil {
			return err
		}
	}

	eng := engine.New(
		engine.WithLogger(log),
		engine.WithHost(f.host),
		engine.WithMetrics(metrics.New()),
		engine.WithRequestStore(requestlog.NewMemoryStore(f.maxLogEntries)),
		engine.WithStreamWriteTimeout(f.streamWriteTimeout),
	)
	defer func() {
		if err := eng.Shutdown(context.Background()); err != nil {
			log.Warn("engine shutdown", "error", err)
		}
	}()

	if file != nil {
		if err := eng.Apply(file); err != nil {
			return fmt.Errorf("apply %s: %w", f.configFile, err)
		}
	}

	var api *admin.API
	if f.adminPort >= 0 {
		opts := []admin.Option{admin.WithLogger(log), admin.WithVersion(info.Version)}
		if f.adminRateLimit > 0 {
			limiter := ratelimit.New(ratelimit.Config{Rate: f.adminRateLimit})
			defer limiter.Stop()
			opts = append(opts, admin.WithRateLimiter(limiter))
		}
		api = admin.New(eng, opts...)
		if err := api.Start(net.JoinHostPort(f.adminHost, strconv.Itoa(f.adminPort))); err != nil {
			return err
		}
	}

	log.Info("portmock running", "listeners", len(eng.Listeners()), "version", info.Version)
	<-ctx.Done()
	log.Info("shutting down")

	if api != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := api.Stop(shutdownCtx); err != nil {
			log.Warn("admin shutdown", "error", err)
		}
	}
	return nil
}
