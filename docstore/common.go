package docstore

import (
	"errors"
)

var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrEmptyTableName        = errors.New("empty table name supplied")
	ErrEmptyCollection       = errors.New("collection must not be empty")
	ErrEmptyDocumentID       = errors.New("document id must not be empty")
	ErrInvalidDocumentPath   = errors.New("document path must have the form <collection>/<id>")
	ErrInvalidPollInterval   = errors.New("poll interval must be positive")
	ErrIteratorDone          = errors.New("snapshot iterator done")
	ErrBuildingQueryFailed   = errors.New("building the query failed")
	ErrQueryingFailed        = errors.New("querying documents failed")
	ErrScanningDBRowFailed   = errors.New("scanning the database row failed")
	ErrWritingFailed         = errors.New("writing the document failed")
	ErrEncodingFieldsFailed  = errors.New("encoding document fields failed")
	ErrDecodingFieldsFailed  = errors.New("decoding document fields failed")
	ErrEnsuringSchemaFailed  = errors.New("ensuring the schema failed")
)
