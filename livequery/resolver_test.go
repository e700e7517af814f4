package livequery_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/docstore/memengine"
	"github.com/heavy-duty/docstate/livequery"
)

type task struct {
	ID     string
	Title  string
	Status string
}

func toTask(id string, data docstore.Fields) (task, error) {
	title, _ := data["title"].(string)
	status, _ := data["status"].(string)

	return task{ID: id, Title: title, Status: status}, nil
}

var errBrokenDocument = errors.New("broken document")

func failingMapper(string, docstore.Fields) (task, error) {
	return task{}, errBrokenDocument
}

func newClient(t *testing.T, docs ...docstore.DocumentSnapshot) *memengine.Client {
	t.Helper()

	client, err := memengine.New()
	require.NoError(t, err)

	for _, doc := range docs {
		require.NoError(t, client.Set(context.Background(), docstore.Doc("tasks", doc.ID), doc.Data))
	}

	return client
}

func doc(id string, fields docstore.Fields) docstore.DocumentSnapshot {
	return docstore.DocumentSnapshot{ID: id, Data: fields}
}

func Test_EntityResolver_Resolve_When_Filter_Is_Nil_Then_Nothing_Is_Resolved(t *testing.T) {
	resolver := livequery.NewEntityResolver(newClient(t), "tasks", toTask)

	assert.Nil(t, resolver.Resolve(nil))
}

func Test_EntityResolver_ByID_When_Document_Is_Missing_Then_Entity_Is_Nil(t *testing.T) {
	resolver := livequery.NewEntityResolver(newClient(t), "tasks", toTask)

	entity, err := resolver.Resolve(docstore.ByID("x")).Get(context.Background())

	require.NoError(t, err)
	assert.Nil(t, entity)
}

func Test_EntityResolver_ByID_Maps_The_Document(t *testing.T) {
	client := newClient(t, doc("a", docstore.Fields{"title": "write tests", "status": "open"}))
	resolver := livequery.NewEntityResolver(client, "tasks", toTask)

	entity, err := resolver.Resolve(docstore.ByID("a")).Get(context.Background())

	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, task{ID: "a", Title: "write tests", Status: "open"}, *entity)
}

func Test_EntityResolver_ByFields_When_Two_Documents_Match_Then_First_In_Order_Wins(t *testing.T) {
	client := newClient(t,
		doc("a", docstore.Fields{"status": "open"}),
		doc("b", docstore.Fields{"status": "done", "title": "first"}),
		doc("c", docstore.Fields{"status": "done", "title": "second"}),
	)
	resolver := livequery.NewEntityResolver(client, "tasks", toTask)

	entity, err := resolver.Resolve(docstore.ByFields(docstore.F("status", "done"))).Get(context.Background())

	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, "b", entity.ID)
}

func Test_EntityResolver_ByFields_When_Nothing_Matches_Then_Entity_Is_Nil(t *testing.T) {
	client := newClient(t, doc("a", docstore.Fields{"status": "open"}))
	resolver := livequery.NewEntityResolver(client, "tasks", toTask)

	entity, err := resolver.Resolve(docstore.ByFields(docstore.F("status", "done"))).Get(context.Background())

	require.NoError(t, err)
	assert.Nil(t, entity)
}

func Test_EntityResolver_ByFields_Skips_Absent_Optional_Fields(t *testing.T) {
	client := newClient(t, doc("a", docstore.Fields{"name": "launch", "status": "open"}))
	resolver := livequery.NewEntityResolver(client, "tasks", toTask)

	var status *string
	filter := docstore.ByFields(docstore.F("name", "launch"), docstore.Opt("status", status))

	entity, err := resolver.Resolve(filter).Get(context.Background())

	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, "a", entity.ID)
	assert.Len(t, resolver.Query(*filter).Constraints, 1)
	assert.Equal(t, 1, resolver.Query(*filter).Limit)
}

func Test_Resolvers_When_Same_Filter_Is_Resolved_Twice_Then_Queries_Are_Equal(t *testing.T) {
	client := newClient(t)
	entities := livequery.NewEntityResolver(client, "tasks", toTask)
	collection := livequery.NewCollectionResolver(client, "tasks", toTask)

	first := docstore.ByFields(docstore.F("status", "done"), docstore.F("owner", "ana"))
	second := docstore.ByFields(docstore.F("owner", "ana"), docstore.F("status", "done"))

	assert.True(t, entities.Query(*first).Equal(entities.Query(*second)))
	assert.True(t, collection.Query(*first).Equal(collection.Query(*second)))
	assert.False(t, entities.Query(*first).Equal(collection.Query(*first)))
}

func Test_EntityResolver_When_Mapper_Fails_Then_LiveQuery_Fails(t *testing.T) {
	client := newClient(t, doc("a", docstore.Fields{"status": "open"}))
	resolver := livequery.NewEntityResolver(client, "tasks", failingMapper)

	_, err := resolver.Resolve(docstore.ByID("a")).Get(context.Background())

	assert.ErrorIs(t, err, livequery.ErrMappingFailed)
	assert.ErrorIs(t, err, errBrokenDocument)
}

func Test_CollectionResolver_ByFields_Without_Constraints_Returns_Full_Collection_In_Order(t *testing.T) {
	client := newClient(t,
		doc("c", docstore.Fields{"status": "open"}),
		doc("a", docstore.Fields{"status": "done"}),
		doc("b", docstore.Fields{"status": "open"}),
	)
	resolver := livequery.NewCollectionResolver(client, "tasks", toTask)

	tasks, err := resolver.Resolve(docstore.ByFields()).Get(context.Background())

	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})
}

func Test_CollectionResolver_ByFields_Filters_By_Equality(t *testing.T) {
	client := newClient(t,
		doc("a", docstore.Fields{"status": "open"}),
		doc("b", docstore.Fields{"status": "done"}),
		doc("c", docstore.Fields{"status": "open"}),
	)
	resolver := livequery.NewCollectionResolver(client, "tasks", toTask)

	tasks, err := resolver.Resolve(docstore.ByFields(docstore.F("status", "open"))).Get(context.Background())

	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "c", tasks[1].ID)
}

func Test_CollectionResolver_When_Nothing_Matches_Then_Slice_Is_Empty_Not_Nil(t *testing.T) {
	resolver := livequery.NewCollectionResolver(newClient(t), "tasks", toTask)

	tasks, err := resolver.Resolve(docstore.ByFields(docstore.F("status", "open"))).Get(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func Test_CollectionResolver_ByID_Yields_Zero_Or_One_Element(t *testing.T) {
	client := newClient(t, doc("a", docstore.Fields{"status": "open"}))
	resolver := livequery.NewCollectionResolver(client, "tasks", toTask)

	found, err := resolver.Resolve(docstore.ByID("a")).Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, found, 1)

	missing, err := resolver.Resolve(docstore.ByID("zzz")).Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func Test_LiveQuery_Subscribe_Emits_On_Every_Remote_Change(t *testing.T) {
	client := newClient(t, doc("a", docstore.Fields{"status": "open"}))
	resolver := livequery.NewCollectionResolver(client, "tasks", toTask)

	values := make(chan []task, 8)
	sub := resolver.Resolve(docstore.ByFields(docstore.F("status", "open"))).Subscribe(
		context.Background(),
		func(tasks []task) { values <- tasks },
		func(err error) { t.Errorf("unexpected failure: %v", err) },
	)
	defer sub.Unsubscribe()

	assert.Len(t, receive(t, values), 1)

	require.NoError(t, client.Set(context.Background(), docstore.Doc("tasks", "b"), docstore.Fields{"status": "open"}))
	assert.Len(t, receive(t, values), 2)

	require.NoError(t, client.Delete(context.Background(), docstore.Doc("tasks", "a")))
	assert.Len(t, receive(t, values), 1)
}

func Test_LiveQuery_Subscribe_Reports_Watch_Failures_Once(t *testing.T) {
	client := newClient(t, doc("a", docstore.Fields{"status": "open"}))
	resolver := livequery.NewEntityResolver(client, "tasks", toTask)

	failures := make(chan error, 2)
	sub := resolver.Resolve(docstore.ByID("a")).Subscribe(
		context.Background(),
		func(*task) {},
		func(err error) { failures <- err },
	)

	brokenErr := docstore.NewError(docstore.CodePermissionDenied, "", nil)
	client.BreakWatches(brokenErr)
	require.NoError(t, client.Update(context.Background(), docstore.Doc("tasks", "a"), docstore.Fields{"status": "done"}))

	select {
	case err := <-failures:
		assert.True(t, docstore.IsCode(err, docstore.CodePermissionDenied))
	case <-time.After(2 * time.Second):
		t.Fatal("no failure reported")
	}

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not end after failure")
	}

	assert.Empty(t, failures)
}

func Test_LiveQuery_Unsubscribe_Ends_The_Subscription_Silently(t *testing.T) {
	resolver := livequery.NewEntityResolver(newClient(t), "tasks", toTask)

	sub := resolver.Resolve(docstore.ByID("a")).Subscribe(
		context.Background(),
		func(*task) {},
		func(err error) { t.Errorf("unexpected failure: %v", err) },
	)
	sub.Unsubscribe()

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not end")
	}
}

func Test_Failed_LiveQuery(t *testing.T) {
	_, err := livequery.Failed[int](errBrokenDocument).Get(context.Background())

	assert.ErrorIs(t, err, errBrokenDocument)
}

func receive[T any](t *testing.T, values <-chan T) T {
	t.Helper()

	select {
	case value := <-values:
		return value
	case <-time.After(2 * time.Second):
		t.Fatal("no emission received")
	}

	var zero T
	return zero
}
