package sqliteengine_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/docstore/sqliteengine"
	"github.com/heavy-duty/docstate/testutil/spies"
)

func newTestClient(t *testing.T, options ...sqliteengine.Option) *sqliteengine.Client {
	t.Helper()

	options = append([]sqliteengine.Option{sqliteengine.WithPollInterval(time.Hour)}, options...)

	client, err := sqliteengine.Open(filepath.Join(t.TempDir(), "docstate.db"), options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.EnsureSchema(context.Background()))

	return client
}

func Test_SQLite_Add_Then_Get(t *testing.T) {
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	client := newTestClient(t, sqliteengine.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	ref, err := client.Add(ctx, "events", docstore.Fields{"name": "Hackathon", "createdAt": docstore.ServerTimestamp})
	require.NoError(t, err)

	snapshot, err := client.GetDocument(ctx, ref)
	require.NoError(t, err)

	assert.True(t, snapshot.Exists)
	assert.Equal(t, "Hackathon", snapshot.Data["name"])
	assert.Equal(t, "2026-02-03T04:05:06Z", snapshot.Data["createdAt"])
	assert.Equal(t, now, snapshot.CreateTime)
}

func Test_SQLite_Get_Missing_Document(t *testing.T) {
	client := newTestClient(t)

	snapshot, err := client.GetDocument(context.Background(), docstore.Doc("events", "missing"))

	require.NoError(t, err)
	assert.False(t, snapshot.Exists)
	assert.Equal(t, "missing", snapshot.ID)
}

func Test_SQLite_Query_Constraints(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, docstore.Doc("seasons", "s2"), docstore.Fields{"name": "b", "isActive": true, "position": 2}))
	require.NoError(t, client.Set(ctx, docstore.Doc("seasons", "s1"), docstore.Fields{"name": "a", "isActive": false, "position": 1}))
	require.NoError(t, client.Set(ctx, docstore.Doc("seasons", "s3"), docstore.Fields{"name": "c", "isActive": true, "position": 3}))
	require.NoError(t, client.Set(ctx, docstore.Doc("events", "e1"), docstore.Fields{"name": "a"}))

	tests := []struct {
		name     string
		query    docstore.Query
		expected []string
	}{
		{name: "unconstrained_in_insertion_order", query: docstore.NewQuery("seasons"), expected: []string{"s2", "s1", "s3"}},
		{name: "string_equality", query: docstore.NewQuery("seasons").Where("name", "a"), expected: []string{"s1"}},
		{name: "bool_true", query: docstore.NewQuery("seasons").Where("isActive", true), expected: []string{"s2", "s3"}},
		{name: "bool_false", query: docstore.NewQuery("seasons").Where("isActive", false), expected: []string{"s1"}},
		{name: "number", query: docstore.NewQuery("seasons").Where("position", 3), expected: []string{"s3"}},
		{name: "limit_one_takes_first", query: docstore.NewQuery("seasons").Where("isActive", true).WithLimit(1), expected: []string{"s2"}},
		{name: "no_match", query: docstore.NewQuery("seasons").Where("name", "zzz"), expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot, err := client.RunQuery(ctx, tt.query)
			require.NoError(t, err)

			ids := make([]string, 0, len(snapshot.Docs))
			for _, doc := range snapshot.Docs {
				ids = append(ids, doc.ID)
			}

			assert.Equal(t, tt.expected, ids)
		})
	}
}

func Test_SQLite_Set_Keeps_Natural_Order(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, docstore.Doc("events", "a"), docstore.Fields{"v": 1}))
	require.NoError(t, client.Set(ctx, docstore.Doc("events", "b"), docstore.Fields{"v": 1}))
	require.NoError(t, client.Set(ctx, docstore.Doc("events", "a"), docstore.Fields{"v": 2}))

	snapshot, err := client.RunQuery(ctx, docstore.NewQuery("events"))
	require.NoError(t, err)
	require.Len(t, snapshot.Docs, 2)
	assert.Equal(t, "a", snapshot.Docs[0].ID)
	assert.Equal(t, docstore.Fields{"v": 2.0}, snapshot.Docs[0].Data)
}

func Test_SQLite_Update(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	ref := docstore.Doc("events", "e1")

	require.NoError(t, client.Set(ctx, ref, docstore.Fields{"name": "a", "description": "d"}))
	require.NoError(t, client.Update(ctx, ref, docstore.Fields{"name": "b"}))

	snapshot, err := client.GetDocument(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, docstore.Fields{"name": "b", "description": "d"}, snapshot.Data)

	err = client.Update(ctx, docstore.Doc("events", "missing"), docstore.Fields{"name": "x"})
	assert.ErrorIs(t, err, docstore.ErrWritingFailed)
	assert.True(t, docstore.IsCode(err, docstore.CodeNotFound))
}

func Test_SQLite_Delete_Is_Idempotent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	ref := docstore.Doc("events", "e1")

	require.NoError(t, client.Set(ctx, ref, docstore.Fields{"name": "a"}))
	require.NoError(t, client.Delete(ctx, ref))
	require.NoError(t, client.Delete(ctx, ref))

	snapshot, err := client.GetDocument(ctx, ref)
	require.NoError(t, err)
	assert.False(t, snapshot.Exists)
}

func Test_SQLite_WatchDocument_Wakes_Up_On_Local_Write(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	ref := docstore.Doc("discord-events", "e1")

	iter := client.WatchDocument(ctx, ref)
	defer iter.Stop()

	first, err := iter.Next()
	require.NoError(t, err)
	assert.False(t, first.Exists)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = client.Set(ctx, ref, docstore.Fields{"status": "creating"})
	}()

	second, err := iter.Next()
	require.NoError(t, err)
	assert.True(t, second.Exists)
	assert.Equal(t, "creating", second.Data["status"])
}

func Test_SQLite_Watch_When_Stopped_Then_Done(t *testing.T) {
	client := newTestClient(t)

	iter := client.WatchQuery(context.Background(), docstore.NewQuery("events"))
	_, err := iter.Next()
	require.NoError(t, err)

	iter.Stop()

	_, err = iter.Next()
	assert.True(t, errors.Is(err, docstore.ErrIteratorDone))
}

func Test_SQLite_Invalid_Arguments(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Add(ctx, "", nil)
	assert.ErrorIs(t, err, docstore.ErrEmptyCollection)

	assert.ErrorIs(t, client.Delete(ctx, docstore.Doc("events", "")), docstore.ErrEmptyDocumentID)

	_, err = client.WatchQuery(ctx, docstore.Query{}).Next()
	assert.ErrorIs(t, err, docstore.ErrEmptyCollection)
}

func Test_SQLite_Records_Observability(t *testing.T) {
	metrics := spies.NewMetricsCollectorSpy(true)
	tracing := spies.NewTracingCollectorSpy(true)
	logs := spies.NewLogHandlerSpy(false)
	client := newTestClient(t,
		sqliteengine.WithMetrics(metrics),
		sqliteengine.WithTracing(tracing),
		sqliteengine.WithLogger(logs.Logger()),
	)

	err := client.Update(context.Background(), docstore.Doc("events", "missing"), docstore.Fields{"a": 1})
	require.Error(t, err)

	assert.True(t, metrics.HasCounterRecordForMetric("docstore_errors_total").
		WithOperation("update").
		WithErrorType("not-found").
		Assert())
	assert.True(t, tracing.HasSpanRecordForName("docstore.update").WithStatus("error").Assert())
	assert.True(t, logs.HasInfoLogWithMessage("docstore operation: ensure_schema").Assert())
}

func Test_NewClient_When_DB_Is_Nil_Then_Error(t *testing.T) {
	_, err := sqliteengine.NewClient(nil)

	assert.ErrorIs(t, err, docstore.ErrNilDatabaseConnection)
}
