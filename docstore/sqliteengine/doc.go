// Package sqliteengine provides a SQLite implementation of the docstore.Client interface for
// single-process deployments, local development, and tests.
//
// Documents are stored as JSON text; equality constraints compile to json_extract comparisons.
// Watches wake up on writes made through the same Client and poll for writes made elsewhere.
package sqliteengine
