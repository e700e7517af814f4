// Package oteladapters implements the docstore observability interfaces on top of OpenTelemetry.
//
// Engines and mutation runners only know docstore.MetricsCollector, docstore.TracingCollector and
// docstore.ContextualLogger. Pass the collectors from this package to get histograms, counters,
// spans and trace-correlated logs without writing the glue yourself:
//
//	meter := otel.Meter("docstate")
//	tracer := otel.Tracer("docstate")
//
//	client, err := postgresengine.NewClientFromPGXPool(pool,
//		postgresengine.WithMetrics(oteladapters.NewMetricsCollector(meter)),
//		postgresengine.WithTracing(oteladapters.NewTracingCollector(tracer)),
//		postgresengine.WithContextualLogger(oteladapters.NewSlogBridgeLogger("docstate")),
//	)
package oteladapters
