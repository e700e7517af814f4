package postgresengine_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/docstore/postgresengine"
)

func Test_Factories_When_Connection_Is_Nil_Then_Error(t *testing.T) {
	_, err := postgresengine.NewClientFromPGXPool(nil)
	assert.ErrorIs(t, err, docstore.ErrNilDatabaseConnection)

	_, err = postgresengine.NewClientFromPGXPoolWithReplica(nil, nil)
	assert.ErrorIs(t, err, docstore.ErrNilDatabaseConnection)

	_, err = postgresengine.NewClientFromSQLDB((*sql.DB)(nil))
	assert.ErrorIs(t, err, docstore.ErrNilDatabaseConnection)

	_, err = postgresengine.NewClientFromSQLX((*sqlx.DB)(nil))
	assert.ErrorIs(t, err, docstore.ErrNilDatabaseConnection)
}

func Test_Factories_When_Option_Is_Invalid_Then_Error(t *testing.T) {
	db := &sql.DB{}

	_, err := postgresengine.NewClientFromSQLDB(db, postgresengine.WithTableName(""))
	assert.ErrorIs(t, err, docstore.ErrEmptyTableName)

	_, err = postgresengine.NewClientFromSQLDB(db, postgresengine.WithPollInterval(0))
	assert.ErrorIs(t, err, docstore.ErrInvalidPollInterval)
}

func Test_Factories_Accept_Valid_Options(t *testing.T) {
	client, err := postgresengine.NewClientFromSQLX(
		sqlx.NewDb(&sql.DB{}, "postgres"),
		postgresengine.WithTableName("docs"),
		postgresengine.WithPollInterval(50*time.Millisecond),
		postgresengine.WithClock(time.Now),
	)

	assert.NoError(t, err)
	assert.NotNil(t, client)

	var _ docstore.Client = client
}
