package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/docstore/internal/codec"
	"github.com/heavy-duty/docstate/docstore/internal/watch"
	"github.com/heavy-duty/docstate/docstore/postgresengine/internal/adapters"
	"github.com/heavy-duty/docstate/internal/observe"
)

const (
	defaultTableName             = "documents"
	defaultPollInterval          = time.Second
	metricsPrefix                = "docstore"
	logMsgBuildQueryFailed       = "failed to build sql statement"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgDBExecFailed           = "database execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgDecodeFieldsFailed     = "failed to decode document fields"
	logMsgEncodeFieldsFailed     = "failed to encode document fields"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logAttrQuery                 = "query"
	logAttrCollection            = "collection"
	logAttrDocumentID            = "document_id"
	logAttrDocumentCount         = "document_count"
	logAttrDurationMS            = "duration_ms"
	logAttrRowsAffected          = "rows_affected"
	logAttrConsistency           = "consistency"
	operationGet                 = "get"
	operationQuery               = "query"
	operationAdd                 = "add"
	operationSet                 = "set"
	operationUpdate              = "update"
	operationDelete              = "delete"
	operationEnsureSchema        = "ensure_schema"
	colCollection                = "collection"
	colID                        = "id"
	colData                      = "data"
	colSeq                       = "seq"
	colCreateTime                = "create_time"
	colUpdateTime                = "update_time"
	dialectPostgres              = "postgres"
	castJsonb                    = "?::jsonb"
	castTimestamp                = "?::timestamp with time zone"
	exprContains                 = "? @> ?::jsonb"
	exprMerge                    = "? || ?::jsonb"
	exprExcludedData             = "EXCLUDED.data"
	exprExcludedUpdateTime       = "EXCLUDED.update_time"
	conflictTarget               = "collection, id"
	spanAttrCollection           = "collection"
	spanAttrDocumentID           = "document_id"
	spanAttrConstraintCount      = "constraint_count"
	spanAttrConsistency          = "consistency"
	notFoundMessageUpdateMissing = "no document to update"
)

type sqlQueryString = string

// Client is a docstore.Client backed by a PostgreSQL table with a JSONB data column.
type Client struct {
	db           adapters.DBAdapter
	tableName    string
	pollInterval time.Duration
	now          func() time.Time
	instruments  *observe.Instruments
}

type documentRow struct {
	id         string
	data       []byte
	createTime time.Time
	updateTime time.Time
}

// NewClientFromPGXPool creates a new Client using a pgx Pool with optional configuration.
func NewClientFromPGXPool(db *pgxpool.Pool, options ...Option) (*Client, error) {
	if db == nil {
		return nil, docstore.ErrNilDatabaseConnection
	}

	return newClient(adapters.NewPGXAdapter(db), options...)
}

// NewClientFromPGXPoolWithReplica creates a new Client using a primary pgx Pool for writes and
// strongly consistent reads, and a replica Pool for reads whose context asks for eventual consistency.
func NewClientFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Client, error) {
	if db == nil {
		return nil, docstore.ErrNilDatabaseConnection
	}

	if replica == nil {
		return NewClientFromPGXPool(db, options...)
	}

	return newClient(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewClientFromSQLDB creates a new Client using a sql.DB with optional configuration.
func NewClientFromSQLDB(db *sql.DB, options ...Option) (*Client, error) {
	if db == nil {
		return nil, docstore.ErrNilDatabaseConnection
	}

	return newClient(adapters.NewSQLAdapter(db), options...)
}

// NewClientFromSQLX creates a new Client using a sqlx.DB with optional configuration.
func NewClientFromSQLX(db *sqlx.DB, options ...Option) (*Client, error) {
	if db == nil {
		return nil, docstore.ErrNilDatabaseConnection
	}

	return newClient(adapters.NewSQLXAdapter(db), options...)
}

func newClient(db adapters.DBAdapter, options ...Option) (*Client, error) {
	c := &Client{
		db:           db,
		tableName:    defaultTableName,
		pollInterval: defaultPollInterval,
		now:          time.Now,
		instruments:  &observe.Instruments{Prefix: metricsPrefix},
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

/***** Reads *****/

// GetDocument reads one document. A missing document is not an error: the snapshot has Exists=false.
func (c *Client) GetDocument(ctx context.Context, ref docstore.DocumentRef) (docstore.DocumentSnapshot, error) {
	if err := ref.Validate(); err != nil {
		return docstore.DocumentSnapshot{}, err
	}

	op, ctx := c.instruments.Start(ctx, operationGet, map[string]string{
		spanAttrCollection:  ref.Collection,
		spanAttrDocumentID:  ref.ID,
		spanAttrConsistency: docstore.GetConsistencyLevel(ctx).String(),
	})

	sqlQuery, err := c.buildGetQuery(ref)
	if err != nil {
		op.Error(errorType(err))
		return docstore.DocumentSnapshot{}, err
	}

	rows, err := c.selectRows(ctx, sqlQuery, operationGet)
	if err != nil {
		op.Error(errorType(err))
		return docstore.DocumentSnapshot{}, err
	}

	snapshot := docstore.DocumentSnapshot{ID: ref.ID}
	if len(rows) > 0 {
		snapshot = rows[0]
	}

	count := 0
	if snapshot.Exists {
		count = 1
	}

	duration := op.Success(count)
	c.instruments.LogOperation(ctx, operationGet,
		logAttrCollection, ref.Collection,
		logAttrDocumentID, ref.ID,
		logAttrDocumentCount, count,
		logAttrDurationMS, observe.ToMilliseconds(duration))

	return snapshot, nil
}

// RunQuery reads all documents of the query's collection matching its constraints, in insertion order.
func (c *Client) RunQuery(ctx context.Context, query docstore.Query) (docstore.QuerySnapshot, error) {
	if err := query.Validate(); err != nil {
		return docstore.QuerySnapshot{}, err
	}

	op, ctx := c.instruments.Start(ctx, operationQuery, map[string]string{
		spanAttrCollection:      query.Collection,
		spanAttrConstraintCount: strconv.Itoa(len(query.Constraints)),
		spanAttrConsistency:     docstore.GetConsistencyLevel(ctx).String(),
	})

	sqlQuery, err := c.buildSelectQuery(query)
	if err != nil {
		op.Error(errorType(err))
		return docstore.QuerySnapshot{}, err
	}

	docs, err := c.selectRows(ctx, sqlQuery, operationQuery)
	if err != nil {
		op.Error(errorType(err))
		return docstore.QuerySnapshot{}, err
	}

	duration := op.Success(len(docs))
	c.instruments.LogOperation(ctx, operationQuery,
		logAttrCollection, query.Collection,
		logAttrDocumentCount, len(docs),
		logAttrConsistency, docstore.GetConsistencyLevel(ctx).String(),
		logAttrDurationMS, observe.ToMilliseconds(duration))

	return docstore.QuerySnapshot{Docs: docs}, nil
}

// WatchDocument polls the document and yields its state whenever it changed.
func (c *Client) WatchDocument(ctx context.Context, ref docstore.DocumentRef) docstore.DocumentSnapshotIterator {
	if err := ref.Validate(); err != nil {
		return watch.Failed[docstore.DocumentSnapshot](err)
	}

	return watch.New(ctx, func(ctx context.Context) (docstore.DocumentSnapshot, error) {
		return c.GetDocument(ctx, ref)
	}, watch.Poll(c.pollInterval))
}

// WatchQuery polls the query and yields its result whenever it changed.
func (c *Client) WatchQuery(ctx context.Context, query docstore.Query) docstore.QuerySnapshotIterator {
	if err := query.Validate(); err != nil {
		return watch.Failed[docstore.QuerySnapshot](err)
	}

	return watch.New(ctx, func(ctx context.Context) (docstore.QuerySnapshot, error) {
		return c.RunQuery(ctx, query)
	}, watch.Poll(c.pollInterval))
}

func (c *Client) selectRows(ctx context.Context, sqlQuery sqlQueryString, action string) ([]docstore.DocumentSnapshot, error) {
	start := time.Now()

	rows, err := c.db.Query(ctx, sqlQuery)
	if err != nil {
		mapped := toDocstoreError(err)
		c.instruments.LogError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return nil, errors.Join(docstore.ErrQueryingFailed, mapped)
	}
	defer c.closeRows(ctx, rows)

	c.instruments.LogQuery(ctx, sqlQuery, action, time.Since(start))

	docs := make([]docstore.DocumentSnapshot, 0)
	for rows.Next() {
		row := documentRow{}
		if err = rows.Scan(&row.id, &row.data, &row.createTime, &row.updateTime); err != nil {
			c.instruments.LogError(ctx, logMsgScanRowFailed, err)
			return nil, errors.Join(docstore.ErrScanningDBRowFailed, toDocstoreError(err))
		}

		fields, decodeErr := codec.Decode(row.data)
		if decodeErr != nil {
			c.instruments.LogError(ctx, logMsgDecodeFieldsFailed, decodeErr, logAttrDocumentID, row.id)
			return nil, errors.Join(decodeErr, docstore.NewError(docstore.CodeInternal, "stored document is not a JSON object", nil))
		}

		docs = append(docs, docstore.DocumentSnapshot{
			ID:         row.id,
			Exists:     true,
			Data:       fields,
			CreateTime: row.createTime.UTC(),
			UpdateTime: row.updateTime.UTC(),
		})
	}

	if err = rows.Err(); err != nil {
		c.instruments.LogError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return nil, errors.Join(docstore.ErrQueryingFailed, toDocstoreError(err))
	}

	return docs, nil
}

func (c *Client) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		c.instruments.LogWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

/***** Writes *****/

// Add creates a document with a generated UUIDv7 ID.
func (c *Client) Add(ctx context.Context, collection string, fields docstore.Fields) (docstore.DocumentRef, error) {
	if collection == "" {
		return docstore.DocumentRef{}, docstore.ErrEmptyCollection
	}

	id, err := uuid.NewV7()
	if err != nil {
		return docstore.DocumentRef{}, errors.Join(docstore.ErrWritingFailed, docstore.NewError(docstore.CodeInternal, "generating document id", err))
	}

	ref := docstore.Doc(collection, id.String())

	err = c.write(ctx, operationAdd, ref, func(now time.Time) (sqlQueryString, error) {
		return c.buildInsertQuery(ref, fields, now, false)
	})
	if err != nil {
		return docstore.DocumentRef{}, err
	}

	return ref, nil
}

// Set creates the document or replaces all of its fields.
func (c *Client) Set(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	return c.write(ctx, operationSet, ref, func(now time.Time) (sqlQueryString, error) {
		return c.buildInsertQuery(ref, fields, now, true)
	})
}

// Update merges the given top-level fields into an existing document.
func (c *Client) Update(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	return c.write(ctx, operationUpdate, ref, func(now time.Time) (sqlQueryString, error) {
		return c.buildUpdateQuery(ref, fields, now)
	})
}

// Delete removes the document. Deleting a missing document succeeds.
func (c *Client) Delete(ctx context.Context, ref docstore.DocumentRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	return c.write(ctx, operationDelete, ref, func(time.Time) (sqlQueryString, error) {
		return c.buildDeleteQuery(ref)
	})
}

func (c *Client) write(
	ctx context.Context,
	operation string,
	ref docstore.DocumentRef,
	build func(now time.Time) (sqlQueryString, error),
) error {

	op, ctx := c.instruments.Start(ctx, operation, map[string]string{
		spanAttrCollection: ref.Collection,
		spanAttrDocumentID: ref.ID,
	})

	sqlQuery, err := build(c.now())
	if err != nil {
		op.Error(errorType(err))
		return err
	}

	start := time.Now()

	result, err := c.db.Exec(ctx, sqlQuery)
	if err != nil {
		mapped := toDocstoreError(err)
		c.instruments.LogError(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)
		op.Error(string(mapped.Code))
		return errors.Join(docstore.ErrWritingFailed, mapped)
	}

	c.instruments.LogQuery(ctx, sqlQuery, operation, time.Since(start))

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.instruments.LogError(ctx, logMsgRowsAffectedFailed, err)
		op.Error(string(docstore.CodeInternal))
		return errors.Join(docstore.ErrWritingFailed, docstore.NewError(docstore.CodeInternal, "rows affected unavailable", err))
	}

	if operation == operationUpdate && rowsAffected == 0 {
		notFound := docstore.NewError(docstore.CodeNotFound, notFoundMessageUpdateMissing+": "+ref.String(), nil)
		op.Error(string(notFound.Code))
		return errors.Join(docstore.ErrWritingFailed, notFound)
	}

	duration := op.Success(-1)
	c.instruments.LogOperation(ctx, operation,
		logAttrCollection, ref.Collection,
		logAttrDocumentID, ref.ID,
		logAttrRowsAffected, rowsAffected,
		logAttrDurationMS, observe.ToMilliseconds(duration))

	return nil
}

/***** SQL building *****/

func (c *Client) buildGetQuery(ref docstore.DocumentRef) (sqlQueryString, error) {
	selectStmt := c.selectColumns().
		Where(
			goqu.C(colCollection).Eq(ref.Collection),
			goqu.C(colID).Eq(ref.ID),
		)

	return c.toSQL(selectStmt)
}

func (c *Client) buildSelectQuery(query docstore.Query) (sqlQueryString, error) {
	conditions := []exp.Expression{goqu.C(colCollection).Eq(query.Collection)}

	for _, constraint := range query.Constraints {
		containment, err := codec.ConstraintDocument(constraint)
		if err != nil {
			c.instruments.LogError(context.Background(), logMsgEncodeFieldsFailed, err)
			return "", errors.Join(docstore.ErrBuildingQueryFailed, docstore.NewError(docstore.CodeInvalidArgument, "constraint value is not encodable", err))
		}

		conditions = append(conditions, goqu.L(exprContains, goqu.C(colData), string(containment)))
	}

	selectStmt := c.selectColumns().
		Where(conditions...).
		Order(goqu.C(colSeq).Asc())

	if query.Limit > 0 {
		selectStmt = selectStmt.Limit(uint(query.Limit))
	}

	return c.toSQL(selectStmt)
}

func (c *Client) selectColumns() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(c.tableName).
		Select(goqu.C(colID), goqu.C(colData), goqu.C(colCreateTime), goqu.C(colUpdateTime))
}

func (c *Client) buildInsertQuery(ref docstore.DocumentRef, fields docstore.Fields, now time.Time, upsert bool) (sqlQueryString, error) {
	data, err := c.encode(fields, now)
	if err != nil {
		return "", err
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(c.tableName).
		Rows(goqu.Record{
			colCollection: ref.Collection,
			colID:         ref.ID,
			colData:       goqu.L(castJsonb, string(data)),
			colCreateTime: goqu.L(castTimestamp, now.UTC()),
			colUpdateTime: goqu.L(castTimestamp, now.UTC()),
		})

	if upsert {
		insertStmt = insertStmt.OnConflict(goqu.DoUpdate(conflictTarget, goqu.Record{
			colData:       goqu.L(exprExcludedData),
			colUpdateTime: goqu.L(exprExcludedUpdateTime),
		}))
	}

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		c.instruments.LogError(context.Background(), logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(docstore.ErrBuildingQueryFailed, docstore.NewError(docstore.CodeInternal, "", toSQLErr))
	}

	return sqlQuery, nil
}

func (c *Client) buildUpdateQuery(ref docstore.DocumentRef, fields docstore.Fields, now time.Time) (sqlQueryString, error) {
	patch, err := c.encode(fields, now)
	if err != nil {
		return "", err
	}

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(c.tableName).
		Set(goqu.Record{
			colData:       goqu.L(exprMerge, goqu.C(colData), string(patch)),
			colUpdateTime: goqu.L(castTimestamp, now.UTC()),
		}).
		Where(
			goqu.C(colCollection).Eq(ref.Collection),
			goqu.C(colID).Eq(ref.ID),
		)

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		c.instruments.LogError(context.Background(), logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(docstore.ErrBuildingQueryFailed, docstore.NewError(docstore.CodeInternal, "", toSQLErr))
	}

	return sqlQuery, nil
}

func (c *Client) buildDeleteQuery(ref docstore.DocumentRef) (sqlQueryString, error) {
	deleteStmt := goqu.Dialect(dialectPostgres).
		Delete(c.tableName).
		Where(
			goqu.C(colCollection).Eq(ref.Collection),
			goqu.C(colID).Eq(ref.ID),
		)

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		c.instruments.LogError(context.Background(), logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(docstore.ErrBuildingQueryFailed, docstore.NewError(docstore.CodeInternal, "", toSQLErr))
	}

	return sqlQuery, nil
}

func (c *Client) toSQL(selectStmt *goqu.SelectDataset) (sqlQueryString, error) {
	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		c.instruments.LogError(context.Background(), logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(docstore.ErrBuildingQueryFailed, docstore.NewError(docstore.CodeInternal, "", toSQLErr))
	}

	return sqlQuery, nil
}

func (c *Client) encode(fields docstore.Fields, now time.Time) ([]byte, error) {
	data, err := codec.Encode(fields, now)
	if err != nil {
		c.instruments.LogError(context.Background(), logMsgEncodeFieldsFailed, err)
		return nil, errors.Join(err, docstore.NewError(docstore.CodeInvalidArgument, "fields are not encodable", nil))
	}

	return data, nil
}
