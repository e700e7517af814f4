// Package docstore provides the core abstractions for reading and writing a remote
// document database.
//
// This package defines the types shared by every engine implementation: filters,
// queries, document references and snapshots, live snapshot iterators, and the
// normalized error codes engines translate their driver errors into.
//
// A Filter is the UI-facing "what to fetch" value:
//   - ByID: exactly one document by its ID
//   - ByFields: documents whose fields equal all present values
//
// Absent values (nil, or a nil pointer passed through Opt) are not constraints, so an
// empty ByFields filter selects the whole collection.
//
// Key types:
//   - Filter: immutable selection criteria set by a view
//   - Query: a collection read with equality constraints and an optional limit
//   - Client: the engine contract with Reader and Writer operations
//   - Error: a failure with a normalized Code such as CodePermissionDenied
//
// Common usage pattern:
//
//	filter := docstore.ByFields(
//		docstore.F("status", "done"),
//		docstore.Opt("userId", maybeUserID),
//	)
//
//	query := docstore.QueryFromFilter("coding-challenge-submissions", *filter, 0)
//	iter := client.WatchQuery(ctx, query)
//	defer iter.Stop()
//
//	for {
//		snapshot, err := iter.Next()
//		if errors.Is(err, docstore.ErrIteratorDone) {
//			return nil
//		}
//		if err != nil {
//			return err
//		}
//		// use snapshot.Docs
//	}
package docstore
