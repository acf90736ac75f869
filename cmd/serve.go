package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/gmailmcp/internal/config"
	"github.com/teemow/gmailmcp/internal/instrumentation"
	"github.com/teemow/gmailmcp/internal/logging"
	"github.com/teemow/gmailmcp/internal/resources"
	"github.com/teemow/gmailmcp/internal/server"
	"github.com/teemow/gmailmcp/internal/tools/gmail_tools"
)

// shutdownTimeout bounds the flush of telemetry on exit.
const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	configPath      string
	credentialsFile string
	tokenFile       string
	metricsAddr     string
	debug           bool
	readOnly        bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server on stdio.

The Gmail session is created on the first tool call from the credentials and
token files. Configuration is read from the TOML file, then the environment,
then flags; later sources win.

Instrumentation is configured through environment variables:
  INSTRUMENTATION_ENABLED, METRICS_EXPORTER, TRACING_EXPORTER,
  OTEL_EXPORTER_OTLP_ENDPOINT, AUDIT_LOGGING_ENABLED`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", fmt.Sprintf("Path to the TOML config file (default: %s)", config.DefaultPath()))
	cmd.Flags().StringVar(&opts.credentialsFile, "credentials", "", "Path to the OAuth client credentials file. Can also use "+config.EnvCredentialsPath+" env var.")
	cmd.Flags().StringVar(&opts.tokenFile, "token", "", "Path to the OAuth token file. Can also use "+config.EnvTokenPath+" env var.")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Only offer tools that do not change the mailbox")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics, /healthz and /readyz on this address (e.g., :9090). Requires METRICS_EXPORTER=prometheus.")

	return cmd
}

// resolveConfig loads the config file and environment, then applies the
// flags that were set explicitly.
func resolveConfig(cmd *cobra.Command, opts serveOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("credentials") {
		cfg.CredentialsFile = opts.credentialsFile
	}
	if flags.Changed("token") {
		cfg.TokenFile = opts.tokenFile
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}
	if flags.Changed("read-only") {
		cfg.ReadOnly = opts.readOnly
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}
	return cfg, nil
}

func runServe(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// stdout carries the MCP protocol
	logger := logging.NewLogger(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	serverContext := server.NewServerContext(ctx,
		server.Paths{CredentialsFile: cfg.CredentialsFile, TokenFile: cfg.TokenFile},
		server.WithLogger(logger),
		server.WithMetrics(provider.Metrics()),
		server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)),
		server.WithReadOnly(cfg.ReadOnly),
	)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer(config.AppName, version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	dispatcher := gmail_tools.Register(mcpSrv, serverContext)
	resources.RegisterMailboxResources(mcpSrv, serverContext)

	logger.Info("starting MCP server",
		slog.String("version", version),
		slog.Int("tools", len(dispatcher.Tools())),
		slog.Bool("read_only", cfg.ReadOnly),
		slog.String("credentials", cfg.CredentialsFile),
	)

	var metricsServer *server.MetricsServer
	if cfg.MetricsAddr != "" {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.MetricsAddr,
			InstrumentationProvider: provider,
			Health:                  server.NewHealthChecker(serverContext),
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// the stdio session ending stops everything else
		defer cancel()
		return serveStdio(gctx, mcpSrv)
	})
	if metricsServer != nil {
		g.Go(func() error {
			return metricsServer.Serve(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	logger.Info("MCP server stopped")
	return nil
}

func serveStdio(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	stdio := mcpserver.NewStdioServer(mcpSrv)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))

	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
