// Package postgresengine provides a PostgreSQL implementation of the docstore.Client interface.
//
// Documents live in one table keyed by (collection, id) with their fields in a JSONB column.
// Equality constraints use JSONB containment, so a GIN index on the data column serves every
// query shape. Natural order is insertion order (a bigserial column).
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Optional read replica for eventually consistent reads (PGX only)
//   - Polling watches that only emit when the result changed
//   - Errors normalized into docstore.Error codes from SQLSTATEs
//   - Optional logging, metrics, and tracing collectors
//
// Usage examples:
//
//	db, _ := pgxpool.New(context.Background(), dsn)
//	client, _ := postgresengine.NewClientFromPGXPool(
//		db,
//		postgresengine.WithLogger(slog.Default()),
//		postgresengine.WithPollInterval(500*time.Millisecond),
//	)
//	_ = client.EnsureSchema(ctx)
//
//	ref, _ := client.Add(ctx, "events", docstore.Fields{"name": "Hackathon"})
//	iter := client.WatchDocument(ctx, ref)
//	defer iter.Stop()
package postgresengine
