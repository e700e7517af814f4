package postgresengine

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/heavy-duty/docstate/docstore"
)

func Test_CodeForSQLState(t *testing.T) {
	tests := []struct {
		state    string
		expected docstore.Code
	}{
		{"42501", docstore.CodePermissionDenied},
		{"28P01", docstore.CodePermissionDenied},
		{"23505", docstore.CodeAlreadyExists},
		{"23502", docstore.CodeInvalidArgument},
		{"22P02", docstore.CodeInvalidArgument},
		{"57014", docstore.CodeCancelled},
		{"57P01", docstore.CodeUnavailable},
		{"08006", docstore.CodeUnavailable},
		{"40001", docstore.CodeUnavailable},
		{"53300", docstore.CodeResourceExhausted},
		{"42P01", docstore.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.expected, codeForSQLState(tt.state))
		})
	}
}

func Test_ToDocstoreError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42501", Message: "permission denied for table documents"}
	mapped := toDocstoreError(pgErr)
	assert.Equal(t, docstore.CodePermissionDenied, mapped.Code)
	assert.Equal(t, "permission denied for table documents", mapped.Message)
	assert.ErrorIs(t, mapped, pgErr)

	pqErr := &pq.Error{Code: "23505", Message: "duplicate key"}
	assert.Equal(t, docstore.CodeAlreadyExists, toDocstoreError(pqErr).Code)

	assert.Equal(t, docstore.CodeCancelled, toDocstoreError(context.Canceled).Code)
	assert.Equal(t, docstore.CodeUnknown, toDocstoreError(errors.New("boom")).Code)
}
