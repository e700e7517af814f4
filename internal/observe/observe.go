// Package observe bundles the optional logging, metrics, and tracing collectors of a component
// and records one operation at a time through them.
//
// Every collector is optional; a zero Instruments value records nothing.
package observe

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/heavy-duty/docstate/docstore"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	AttrOperation  = "operation"
	AttrStatus     = "status"
	AttrErrorType  = "error_type"
	AttrDurationMS = "duration_ms"
	AttrCount      = "count"

	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrDurationMS = "duration_ms"
	logMsgSQLExecuted = "executed sql for: "
	logMsgOperation   = " operation: "
)

// Instruments holds the collectors of one component. Prefix names the component in metric and
// span names, e.g. "docstore" yields "docstore_query_duration_seconds" and "docstore.query".
type Instruments struct {
	Prefix           string
	Logger           docstore.Logger
	ContextualLogger docstore.ContextualLogger
	Metrics          docstore.MetricsCollector
	Tracing          docstore.TracingCollector
}

// DurationMetric returns the duration metric name of an operation.
func (in *Instruments) DurationMetric(operation string) string {
	return in.Prefix + "_" + operation + "_duration_seconds"
}

// CountMetric returns the value metric name recording result sizes of an operation.
func (in *Instruments) CountMetric(operation string) string {
	return in.Prefix + "_" + operation + "_count"
}

// ErrorsMetric returns the counter name for failed operations.
func (in *Instruments) ErrorsMetric() string {
	return in.Prefix + "_errors_total"
}

// SpanName returns the span name of an operation.
func (in *Instruments) SpanName(operation string) string {
	return in.Prefix + "." + operation
}

/***** Operation observer *****/

// Operation observes one running operation from Start until Success or Error.
type Operation struct {
	in        *Instruments
	ctx       context.Context
	operation string
	span      docstore.SpanContext
	started   time.Time
}

// Start opens a span (if tracing is configured) and starts timing the operation.
// The returned context carries the span and must be used for the operation's work.
func (in *Instruments) Start(ctx context.Context, operation string, attrs map[string]string) (*Operation, context.Context) {
	spanAttrs := map[string]string{AttrOperation: operation}
	for key, value := range attrs {
		spanAttrs[key] = value
	}

	var span docstore.SpanContext
	if in.Tracing != nil {
		ctx, span = in.Tracing.StartSpan(ctx, in.SpanName(operation), spanAttrs)
	}

	return &Operation{
		in:        in,
		ctx:       ctx,
		operation: operation,
		span:      span,
		started:   time.Now(),
	}, ctx
}

// Success records the duration, the optional result count (negative means none), and closes the span.
func (op *Operation) Success(count int) time.Duration {
	duration := time.Since(op.started)

	op.in.recordDuration(op.ctx, op.operation, StatusSuccess, duration)

	attrs := map[string]string{AttrDurationMS: FormatMilliseconds(duration)}
	if count >= 0 {
		op.in.recordValue(op.ctx, op.operation, StatusSuccess, float64(count))
		attrs[AttrCount] = fmt.Sprintf("%d", count)
	}

	op.finishSpan(StatusSuccess, attrs)

	return duration
}

// Error records the duration, increments the error counter, and closes the span with the error type.
func (op *Operation) Error(errorType string) time.Duration {
	duration := time.Since(op.started)

	op.in.recordDuration(op.ctx, op.operation, StatusError, duration)
	op.in.incrementErrors(op.ctx, op.operation, errorType)
	op.finishSpan(StatusError, map[string]string{
		AttrErrorType:  errorType,
		AttrDurationMS: FormatMilliseconds(duration),
	})

	return duration
}

func (op *Operation) finishSpan(status string, attrs map[string]string) {
	if op.in.Tracing == nil || op.span == nil {
		return
	}

	op.span.SetStatus(status)
	for key, value := range attrs {
		op.span.AddAttribute(key, value)
	}

	op.in.Tracing.FinishSpan(op.span, status, attrs)
}

/***** Metrics *****/

func (in *Instruments) recordDuration(ctx context.Context, operation, status string, duration time.Duration) {
	if in.Metrics == nil {
		return
	}

	labels := map[string]string{AttrOperation: operation, AttrStatus: status}
	metric := in.DurationMetric(operation)

	if contextual, ok := in.Metrics.(docstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	in.Metrics.RecordDuration(metric, duration, labels)
}

func (in *Instruments) recordValue(ctx context.Context, operation, status string, value float64) {
	if in.Metrics == nil {
		return
	}

	labels := map[string]string{AttrOperation: operation, AttrStatus: status}
	metric := in.CountMetric(operation)

	if contextual, ok := in.Metrics.(docstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	in.Metrics.RecordValue(metric, value, labels)
}

func (in *Instruments) incrementErrors(ctx context.Context, operation, errorType string) {
	if in.Metrics == nil {
		return
	}

	labels := map[string]string{AttrOperation: operation, AttrStatus: StatusError, AttrErrorType: errorType}

	if contextual, ok := in.Metrics.(docstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, in.ErrorsMetric(), labels)
		return
	}

	in.Metrics.IncrementCounter(in.ErrorsMetric(), labels)
}

/***** Logging *****/

// LogQuery logs an executed SQL statement with its duration at debug level.
func (in *Instruments) LogQuery(ctx context.Context, sqlQuery, action string, duration time.Duration) {
	args := []any{logAttrDurationMS, ToMilliseconds(duration), logAttrQuery, sqlQuery}

	if in.Logger != nil {
		in.Logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if in.ContextualLogger != nil {
		in.ContextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// LogOperation logs a completed operation at info level.
func (in *Instruments) LogOperation(ctx context.Context, action string, args ...any) {
	msg := in.Prefix + logMsgOperation + action

	if in.Logger != nil {
		in.Logger.Info(msg, args...)
	}

	if in.ContextualLogger != nil {
		in.ContextualLogger.InfoContext(ctx, msg, args...)
	}
}

// LogWarn logs a non-critical failure at warn level.
func (in *Instruments) LogWarn(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if in.Logger != nil {
		in.Logger.Warn(message, allArgs...)
	}

	if in.ContextualLogger != nil {
		in.ContextualLogger.WarnContext(ctx, message, allArgs...)
	}
}

// LogError logs a failure at error level.
func (in *Instruments) LogError(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if in.Logger != nil {
		in.Logger.Error(message, allArgs...)
	}

	if in.ContextualLogger != nil {
		in.ContextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func ToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// FormatMilliseconds formats a duration for span attributes.
func FormatMilliseconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", float64(d.Nanoseconds())/1e6)
}
