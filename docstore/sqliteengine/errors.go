package sqliteengine

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/heavy-duty/docstate/docstore"
)

// toDocstoreError normalizes a driver error into a *docstore.Error.
func toDocstoreError(err error) *docstore.Error {
	if ctxErr := docstore.FromContextError(err); ctxErr != nil {
		return ctxErr
	}

	var docErr *docstore.Error
	if errors.As(err, &docErr) {
		return docErr
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return docstore.NewError(codeForSQLiteError(sqliteErr), sqliteErr.Error(), err)
	}

	return docstore.NewError(docstore.CodeUnknown, err.Error(), err)
}

func codeForSQLiteError(err sqlite3.Error) docstore.Code {
	switch err.Code {
	case sqlite3.ErrConstraint:
		if err.ExtendedCode == sqlite3.ErrConstraintUnique || err.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return docstore.CodeAlreadyExists
		}

		return docstore.CodeInvalidArgument
	case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return docstore.CodePermissionDenied
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
		return docstore.CodeUnavailable
	case sqlite3.ErrFull, sqlite3.ErrNomem, sqlite3.ErrTooBig:
		return docstore.CodeResourceExhausted
	case sqlite3.ErrInterrupt:
		return docstore.CodeCancelled
	case sqlite3.ErrMismatch, sqlite3.ErrRange:
		return docstore.CodeInvalidArgument
	default:
		return docstore.CodeInternal
	}
}

func errorType(err error) string {
	return string(docstore.CodeOf(err))
}
