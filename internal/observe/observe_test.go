package observe_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heavy-duty/docstate/internal/observe"
	"github.com/heavy-duty/docstate/testutil/spies"
)

func Test_Operation_Success_Records_Metrics_And_Span(t *testing.T) {
	metrics := spies.NewMetricsCollectorSpy(true)
	tracing := spies.NewTracingCollectorSpy(true)
	in := &observe.Instruments{Prefix: "docstore", Metrics: metrics, Tracing: tracing}

	op, _ := in.Start(context.Background(), "query", map[string]string{"collection": "events"})
	op.Success(3)

	assert.True(t, metrics.HasDurationRecordForMetric("docstore_query_duration_seconds").
		WithOperation("query").
		WithStatus(observe.StatusSuccess).
		Assert())
	assert.True(t, metrics.HasValueRecordForMetric("docstore_query_count").Assert())
	assert.True(t, tracing.HasSpanRecordForName("docstore.query").
		WithStatus(observe.StatusSuccess).
		WithStartAttribute("collection", "events").
		WithStartAttribute(observe.AttrOperation, "query").
		WithEndAttribute(observe.AttrCount, "3").
		Assert())
}

func Test_Operation_Error_Records_Error_Counter(t *testing.T) {
	metrics := spies.NewMetricsCollectorSpy(true)
	tracing := spies.NewTracingCollectorSpy(true)
	in := &observe.Instruments{Prefix: "mutation", Metrics: metrics, Tracing: tracing}

	op, _ := in.Start(context.Background(), "delete_event", nil)
	op.Error("permission-denied")

	assert.True(t, metrics.HasCounterRecordForMetric("mutation_errors_total").
		WithOperation("delete_event").
		WithErrorType("permission-denied").
		Assert())
	assert.True(t, tracing.HasSpanRecordForName("mutation.delete_event").
		WithStatus(observe.StatusError).
		WithEndAttribute(observe.AttrErrorType, "permission-denied").
		Assert())
}

func Test_Operation_Success_Without_Count_Records_No_Value(t *testing.T) {
	metrics := spies.NewMetricsCollectorSpy(true)
	in := &observe.Instruments{Prefix: "docstore", Metrics: metrics}

	op, _ := in.Start(context.Background(), "set", nil)
	op.Success(-1)

	assert.Empty(t, metrics.GetValueRecords())
	assert.Len(t, metrics.GetDurationRecords(), 1)
}

func Test_Instruments_Without_Collectors_Records_Nothing(t *testing.T) {
	in := &observe.Instruments{Prefix: "docstore"}

	op, ctx := in.Start(context.Background(), "query", nil)
	require.NotNil(t, ctx)

	assert.NotPanics(t, func() {
		op.Success(1)
		in.LogQuery(ctx, "SELECT 1", "query", time.Millisecond)
		in.LogOperation(ctx, "query")
		in.LogError(ctx, "failed", errors.New("boom"))
	})
}

func Test_Instruments_Logging(t *testing.T) {
	handler := spies.NewLogHandlerSpy(false)
	contextual := spies.NewContextualLoggerSpy(true)
	in := &observe.Instruments{Prefix: "docstore", Logger: handler.Logger(), ContextualLogger: contextual}
	ctx := context.Background()

	in.LogQuery(ctx, "SELECT 1", "query", 2*time.Millisecond)
	in.LogOperation(ctx, "query", "count", 2)
	in.LogError(ctx, "query failed", errors.New("boom"))

	assert.True(t, handler.HasDebugLogWithMessage("executed sql for: query").WithDurationMS().WithAttr("query", "SELECT 1").Assert())
	assert.True(t, handler.HasInfoLogWithMessage("docstore operation: query").WithAttrKey("count").Assert())
	assert.True(t, handler.HasErrorLogWithMessage("query failed").WithAttr("error", "boom").Assert())
	assert.True(t, contextual.HasRecord("info", "docstore operation: query"))
	assert.True(t, contextual.HasRecord("error", "query failed"))
}

func Test_ToMilliseconds(t *testing.T) {
	assert.InDelta(t, 1.5, observe.ToMilliseconds(1500*time.Microsecond), 0.0001)
	assert.Equal(t, "1.50", observe.FormatMilliseconds(1500*time.Microsecond))
}
