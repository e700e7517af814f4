package docstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heavy-duty/docstate/docstore"
)

func Test_ParseDocumentRef(t *testing.T) {
	ref, err := docstore.ParseDocumentRef("discord-events/event-1")
	require.NoError(t, err)
	assert.Equal(t, docstore.Doc("discord-events", "event-1"), ref)
	assert.Equal(t, "discord-events/event-1", ref.String())

	for _, invalid := range []string{"", "events", "events/", "/id", "a/b/c"} {
		_, err = docstore.ParseDocumentRef(invalid)
		assert.ErrorIs(t, err, docstore.ErrInvalidDocumentPath, invalid)
	}
}

func Test_DocumentRef_Validate(t *testing.T) {
	assert.ErrorIs(t, docstore.Doc("", "id").Validate(), docstore.ErrEmptyCollection)
	assert.ErrorIs(t, docstore.Doc("events", "").Validate(), docstore.ErrEmptyDocumentID)
	assert.NoError(t, docstore.Doc("events", "id").Validate())
}

func Test_ResolveServerTimestamps_Replaces_Nested_Sentinels(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fields := docstore.Fields{
		"status":    "done",
		"updatedAt": docstore.ServerTimestamp,
		"review": map[string]any{
			"doneAt": docstore.ServerTimestamp,
		},
	}

	resolved := docstore.ResolveServerTimestamps(fields, now)

	assert.Equal(t, "done", resolved["status"])
	assert.Equal(t, now, resolved["updatedAt"])
	assert.Equal(t, now, resolved["review"].(docstore.Fields)["doneAt"])
	assert.True(t, docstore.IsServerTimestamp(fields["updatedAt"]), "input must stay untouched")
}

func Test_QuerySnapshot_Empty(t *testing.T) {
	assert.True(t, docstore.QuerySnapshot{}.Empty())
	assert.Equal(t, 1, docstore.QuerySnapshot{Docs: []docstore.DocumentSnapshot{{ID: "a"}}}.Size())
}
