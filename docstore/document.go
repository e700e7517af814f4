package docstore

import (
	"strings"
	"time"
)

// Fields holds the raw top-level fields of a document.
type Fields = map[string]any

/***** DocumentRef *****/

// DocumentRef addresses one document inside a collection.
type DocumentRef struct {
	Collection string
	ID         string
}

// Doc builds a DocumentRef.
func Doc(collection, id string) DocumentRef {
	return DocumentRef{Collection: collection, ID: id}
}

// ParseDocumentRef parses a "<collection>/<id>" path.
func ParseDocumentRef(path string) (DocumentRef, error) {
	collection, id, found := strings.Cut(path, "/")
	if !found || collection == "" || id == "" || strings.Contains(id, "/") {
		return DocumentRef{}, ErrInvalidDocumentPath
	}

	return Doc(collection, id), nil
}

// Validate checks that both parts of the reference are set.
func (r DocumentRef) Validate() error {
	if r.Collection == "" {
		return ErrEmptyCollection
	}

	if r.ID == "" {
		return ErrEmptyDocumentID
	}

	return nil
}

func (r DocumentRef) String() string {
	return r.Collection + "/" + r.ID
}

/***** Snapshots *****/

// DocumentSnapshot is the state of one document at the time it was read.
// Data is nil when the document does not exist.
type DocumentSnapshot struct {
	ID         string
	Exists     bool
	Data       Fields
	CreateTime time.Time
	UpdateTime time.Time
}

// QuerySnapshot is the ordered result of a query at the time it was read.
type QuerySnapshot struct {
	Docs []DocumentSnapshot
}

// Empty reports whether the query matched no documents.
func (qs QuerySnapshot) Empty() bool {
	return len(qs.Docs) == 0
}

// Size returns the number of matched documents.
func (qs QuerySnapshot) Size() int {
	return len(qs.Docs)
}

/***** Server timestamps *****/

type serverTimestamp struct{}

// ServerTimestamp is a sentinel field value that engines replace with their clock's time on write.
var ServerTimestamp any = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// ResolveServerTimestamps returns a copy of fields with every ServerTimestamp sentinel (including
// those inside nested maps) replaced by now.
func ResolveServerTimestamps(fields Fields, now time.Time) Fields {
	resolved := make(Fields, len(fields))

	for key, value := range fields {
		resolved[key] = resolveServerTimestampValue(value, now)
	}

	return resolved
}

func resolveServerTimestampValue(value any, now time.Time) any {
	switch v := value.(type) {
	case serverTimestamp:
		return now
	case map[string]any:
		return ResolveServerTimestamps(v, now)
	default:
		return value
	}
}
