// Package observability provides the logger, Prometheus metrics, and OpenTelemetry tracing
// used by the loader and the provisioning pipeline.
//
// # Logging
//
// Create logger:
//
//	logger := observability.NewLogger("info", "text", os.Stderr)
//	logger.WithField("module", "MyMod").Info("Provisioning started")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordResolution("done")
//	metrics.RecordProvision("succeeded", time.Since(start))
//
// A nil *Metrics is valid and records nothing.
//
// # OpenTelemetry
//
// Initialize tracing:
//
//	tp, err := observability.InitTracing(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "modloader",
//	}, logger)
//	defer observability.ShutdownTracing(ctx, tp, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/loader: Resolution metrics and spans
//   - pkg/provision: Provisioning metrics and spans
package observability
