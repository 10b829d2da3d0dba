// Package observability builds the process logger and tracer provider.
//
// Logging uses log/slog with JSON or text handlers that redact credential
// attributes. Tracing uses the OpenTelemetry SDK with an OTLP gRPC exporter;
// disabled or "noop" tracing yields a provider that records nothing, so
// callers can always take a tracer from the returned provider.
//
//	logger := observability.NewLogger(cfg.Logging, os.Stderr)
//
//	tp, err := observability.InitTracing(ctx, cfg.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer observability.ShutdownTracing(ctx, tp)
//	tracer := tp.Tracer(observability.TracerName)
package observability
