package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/platinummonkey/modloader/pkg/config"
	"github.com/platinummonkey/modloader/pkg/observability"
)

// app carries the state shared by all subcommands of one invocation
type app struct {
	configPath  string
	logLevel    string
	logFormat   string
	metricsFile string

	cfg      *config.Config
	logger   *logrus.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	tracer   *sdktrace.TracerProvider
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "modloader",
		Short: "modloader - version-matched extension module loader",
		Long: `Build and inspect module images, and dry-run the runtime resolver.

Module images are tagged with the host version they were built for. At run
time the resolver picks the image matching the running host and constructs
the extension types it declares.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file (default $MODLOADER_CONFIG)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&a.metricsFile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	root.AddCommand(newProvisionCmd(a))
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newResolveCmd(a))
	root.AddCommand(newStampCmd(a))
	root.AddCommand(newSanitizeCmd())

	return root
}

// Execute runs the root command until it finishes or the process is
// interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// setup loads configuration and initializes logging, metrics and tracing
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.Load(a.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.Observability.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Observability.LogFormat = a.logFormat
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, cmd.ErrOrStderr())

	a.registry = prometheus.NewRegistry()
	a.metrics = observability.NewMetrics(a.registry)

	a.tracer, err = observability.InitTracing(cmd.Context(), observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return nil
}

// teardown flushes traces and writes the metrics text file, if requested
func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	// Shutdown failures are already logged
	_ = observability.ShutdownTracing(context.WithoutCancel(cmd.Context()), a.tracer, a.logger)

	path := a.metricsFile
	if path == "" && a.cfg.Observability.MetricsEnabled {
		path = "modloader.prom"
	}
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	a.logger.Debugf("Wrote metrics to %s", path)
	return nil
}
