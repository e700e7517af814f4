package docstore

import (
	"context"
)

// DocumentSnapshotIterator delivers successive states of one watched document.
//
// The first call to Next returns the current state; later calls block until the document changes.
// Next returns ErrIteratorDone once Stop was called or the watch context ended. Any other error
// terminates the watch: every later call returns the same error.
type DocumentSnapshotIterator interface {
	Next() (DocumentSnapshot, error)
	Stop()
}

// QuerySnapshotIterator delivers successive results of one watched query, with the same
// semantics as DocumentSnapshotIterator.
type QuerySnapshotIterator interface {
	Next() (QuerySnapshot, error)
	Stop()
}

// Reader covers one-shot and live reads.
type Reader interface {
	GetDocument(ctx context.Context, ref DocumentRef) (DocumentSnapshot, error)
	RunQuery(ctx context.Context, query Query) (QuerySnapshot, error)
	WatchDocument(ctx context.Context, ref DocumentRef) DocumentSnapshotIterator
	WatchQuery(ctx context.Context, query Query) QuerySnapshotIterator
}

// Writer covers single-document writes. Every write is one atomic remote operation.
type Writer interface {
	// Add creates a document with a generated ID inside collection.
	Add(ctx context.Context, collection string, fields Fields) (DocumentRef, error)

	// Set creates or fully replaces the document.
	Set(ctx context.Context, ref DocumentRef, fields Fields) error

	// Update merges top-level fields into an existing document; missing documents fail with CodeNotFound.
	Update(ctx context.Context, ref DocumentRef, fields Fields) error

	// Delete removes the document; deleting a missing document succeeds.
	Delete(ctx context.Context, ref DocumentRef) error
}

// Client is the remote document database as seen by services and resolvers.
type Client interface {
	Reader
	Writer
}
