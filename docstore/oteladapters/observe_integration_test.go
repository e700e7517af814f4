package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/heavy-duty/docstate/internal/observe"
)

func Test_Instruments_With_OTelAdapters_RecordSpanAndMetrics(t *testing.T) {
	tracing, exporter := newTracingCollector()
	metrics, reader := newMetricsCollector()

	in := &observe.Instruments{Prefix: "docstore", Metrics: metrics, Tracing: tracing}

	op, _ := in.Start(context.Background(), "query", map[string]string{"collection": "events"})
	op.Success(4)

	failed, _ := in.Start(context.Background(), "update", nil)
	failed.Error("not-found")

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "docstore.query", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assertSpanHasAttribute(t, spans[0], "collection", "events")
	assertSpanHasAttribute(t, spans[0], "count", "4")
	assert.Equal(t, "docstore.update", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assertSpanHasAttribute(t, spans[1], "error_type", "not-found")

	resourceMetrics := collect(t, reader)
	findMetric(t, resourceMetrics, "docstore_query_duration_seconds")
	findMetric(t, resourceMetrics, "docstore_update_duration_seconds")

	gauge, ok := findMetric(t, resourceMetrics, "docstore_query_count").Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.Equal(t, 4.0, gauge.DataPoints[0].Value)

	errorsTotal, ok := findMetric(t, resourceMetrics, "docstore_errors_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), errorsTotal.DataPoints[0].Value)
}
