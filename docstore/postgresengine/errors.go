package postgresengine

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/heavy-duty/docstate/docstore"
)

// toDocstoreError normalizes a driver error into a *docstore.Error.
func toDocstoreError(err error) *docstore.Error {
	if ctxErr := docstore.FromContextError(err); ctxErr != nil {
		return ctxErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return docstore.NewError(codeForSQLState(pgErr.Code), pgErr.Message, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return docstore.NewError(codeForSQLState(string(pqErr.Code)), pqErr.Message, err)
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return docstore.NewError(docstore.CodeUnavailable, err.Error(), err)
	}

	return docstore.NewError(docstore.CodeUnknown, err.Error(), err)
}

// codeForSQLState maps a PostgreSQL SQLSTATE onto a docstore code.
func codeForSQLState(state string) docstore.Code {
	switch {
	case state == "42501":
		return docstore.CodePermissionDenied
	case strings.HasPrefix(state, "28"):
		return docstore.CodePermissionDenied
	case state == "23505":
		return docstore.CodeAlreadyExists
	case strings.HasPrefix(state, "23"), strings.HasPrefix(state, "22"):
		return docstore.CodeInvalidArgument
	case state == "57014":
		return docstore.CodeCancelled
	case strings.HasPrefix(state, "57P"), strings.HasPrefix(state, "08"), state == "40001", state == "40P01":
		return docstore.CodeUnavailable
	case strings.HasPrefix(state, "53"):
		return docstore.CodeResourceExhausted
	default:
		return docstore.CodeInternal
	}
}

// errorType returns the metrics/span label of a failed operation.
func errorType(err error) string {
	return string(docstore.CodeOf(err))
}
