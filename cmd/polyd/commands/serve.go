package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/polydev/polyd/internal/logger"
	"github.com/polydev/polyd/internal/telemetry"
	"github.com/polydev/polyd/pkg/api"
	"github.com/polydev/polyd/pkg/completer"
	"github.com/polydev/polyd/pkg/config"
	"github.com/polydev/polyd/pkg/metrics"
	"github.com/polydev/polyd/pkg/server"

	// Import prometheus metrics to register init() functions
	_ "github.com/polydev/polyd/pkg/metrics/prometheus"
)

var (
	serveHost     string
	servePort     int
	serveLogLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the polyd completion daemon",
	Long: `Start the polyd completion daemon.

The daemon binds a loopback HTTP endpoint and serves completion traffic
until it receives SIGINT or SIGTERM, then shuts down gracefully: the
listener stops accepting new connections and any open connection
channels are force-closed.

When run from an interactive terminal, the daemon prints a single
readiness line once the endpoint is bound:

  serving on http://<host>:<port>

Editor integrations wait for this line before sending requests.

Examples:
  # Start with default config location
  polyd serve

  # Start with custom config file
  polyd serve --config /etc/polyd/config.yaml

  # Bind an ephemeral port (the readiness line reports the real one)
  polyd serve --port 0

  # Use environment variables to override config
  POLYD_LOGGING_LEVEL=DEBUG polyd serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Address to bind (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", -1, "Port to listen on, 0 for ephemeral (overrides config)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Flags win over config file and environment
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort >= 0 {
		cfg.Server.Port = servePort
	}
	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "polyd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "polyd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Initialize metrics FIRST so NewServerMetrics sees them enabled
	var serverMetrics metrics.ServerMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		serverMetrics = metrics.NewServerMetrics()
		logger.Info("Metrics enabled")
	} else {
		logger.Info("Metrics collection disabled")
	}

	registry := completer.Default()
	logger.Info("Completer registry initialized", "completers", registry.Len())

	endpoint := server.NewHTTPEndpoint(server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}, nil, serverMetrics)

	lifecycle := server.NewLifecycle(endpoint)

	router := api.NewRouter(api.RouterConfig{
		Lifecycle: lifecycle,
		Registry:  registry,
		Version:   Version,
		Metrics:   serverMetrics,
	})
	endpoint.SetHandler(router)

	if err := lifecycle.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	host, port := endpoint.Addr()
	logger.Info("Server listening", "host", host, "port", port)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- lifecycle.Serve()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown", "signal", sig.String())

		if err := lifecycle.Shutdown(); err != nil {
			logger.Error("Shutdown error", "error", err)
		}

		if err := <-serverDone; err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("Server stopped")
	}

	return nil
}
