// Package observability provides logging, metrics, and tracing
// for the actions engine.
//
// # Logging
//
// The Logger interface provides structured logging backed by zap:
//
//	logger, err := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("route resolved",
//	    observability.String("route", "blog_show"),
//	    observability.Int("candidates", 2),
//	)
//
// WithContext attaches the request ID, route name and trace ID found in a
// context to every entry.
//
// # Metrics
//
// Metrics owns the Prometheus registry served on the metrics path.
// Package-level collectors (cache, router) are bridged into it with
// their MustRegister methods.
//
// # Tracing
//
// OpenTelemetry tracing with OTLP/gRPC export:
//
//	tracer, err := observability.NewTracer(observability.TracerConfig{Enabled: true, OTLPEndpoint: "otel:4317"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(ctx)
package observability
