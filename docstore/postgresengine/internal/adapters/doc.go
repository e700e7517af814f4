// Package adapters provide database adapter implementations for the PostgreSQL document client.
//
// The adapter pattern lets the client run on pgx.Pool, sql.DB, and sqlx.DB behind one
// DBAdapter interface. Only the pgx adapter supports a read replica; it routes queries
// there when the context asks for eventual consistency.
package adapters
