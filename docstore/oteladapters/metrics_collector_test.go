package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/heavy-duty/docstate/docstore/oteladapters"
)

func newMetricsCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	return resourceMetrics
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	require.Failf(t, "metric not found", "no metric named %s", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration_AsHistogramInSeconds(t *testing.T) {
	collector, reader := newMetricsCollector()

	collector.RecordDuration("docstore_query_duration_seconds", 150*time.Millisecond, map[string]string{
		"operation": "query",
		"status":    "success",
	})

	m := findMetric(t, collect(t, reader), "docstore_query_duration_seconds")
	assert.Equal(t, "s", m.Unit)

	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected a float64 histogram")
	require.Len(t, histogram.DataPoints, 1)

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001)

	expected := attribute.NewSet(attribute.String("operation", "query"), attribute.String("status", "success"))
	assert.True(t, dataPoint.Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounter_Accumulates(t *testing.T) {
	collector, reader := newMetricsCollector()
	labels := map[string]string{"operation": "update", "error_type": "permission-denied"}

	collector.IncrementCounter("mutation_errors_total", labels)
	collector.IncrementCounter("mutation_errors_total", labels)
	collector.IncrementCounterContext(context.Background(), "mutation_errors_total", labels)

	sum, ok := findMetric(t, collect(t, reader), "mutation_errors_total").Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum")
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
	assert.True(t, sum.IsMonotonic)
}

func Test_MetricsCollector_RecordValue_AsGauge(t *testing.T) {
	collector, reader := newMetricsCollector()

	collector.RecordValue("docstore_query_count", 2, nil)
	collector.RecordValueContext(context.Background(), "docstore_query_count", 7, nil)

	gauge, ok := findMetric(t, collect(t, reader), "docstore_query_count").Data.(metricdata.Gauge[float64])
	require.True(t, ok, "expected a float64 gauge")
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 7.0, gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_SeparatesLabelSets(t *testing.T) {
	collector, reader := newMetricsCollector()

	collector.IncrementCounter("ops", map[string]string{"status": "success"})
	collector.IncrementCounter("ops", map[string]string{"status": "error"})

	sum, ok := findMetric(t, collect(t, reader), "ops").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sum.DataPoints, 2)
}

func Test_MetricsCollector_ConcurrentUse(t *testing.T) {
	collector, reader := newMetricsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter("concurrent_total", nil)
			collector.RecordDuration("concurrent_duration_seconds", time.Millisecond, nil)
		}()
	}
	wg.Wait()

	sum, ok := findMetric(t, collect(t, reader), "concurrent_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(20), sum.DataPoints[0].Value)
}
