// Package domain holds the entities shown by the UI and the mappers that build them from
// document data.
//
// Mappers tolerate partial documents: missing fields keep their zero value. Timestamps may be
// stored as time.Time or as RFC 3339 strings, since engines normalize documents to JSON.
package domain
