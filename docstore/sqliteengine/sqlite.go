package sqliteengine

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // driver registration

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/docstore/internal/codec"
	"github.com/heavy-duty/docstate/docstore/internal/watch"
	"github.com/heavy-duty/docstate/internal/observe"
)

//go:embed schema.sql
var schemaTemplate string

const (
	driverName               = "sqlite3"
	dialectSQLite            = "sqlite3"
	defaultTableName         = "documents"
	defaultPollInterval      = time.Second
	metricsPrefix            = "docstore"
	dsnParams                = "_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	timeLayout               = time.RFC3339Nano
	logMsgBuildQueryFailed   = "failed to build sql statement"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgRollbackFailed     = "failed to roll back transaction"
	logMsgScanRowFailed      = "failed to scan database row"
	logAttrQuery             = "query"
	logAttrCollection        = "collection"
	logAttrDocumentID        = "document_id"
	logAttrDocumentCount     = "document_count"
	logAttrDurationMS        = "duration_ms"
	operationGet             = "get"
	operationQuery           = "query"
	operationAdd             = "add"
	operationSet             = "set"
	operationUpdate          = "update"
	operationDelete          = "delete"
	operationEnsureSchema    = "ensure_schema"
	colSeq                   = "seq"
	colCollection            = "collection"
	colID                    = "id"
	colData                  = "data"
	colCreateTime            = "create_time"
	colUpdateTime            = "update_time"
	exprJSONExtractEquals    = "json_extract(?, ?) = ?"
	exprJSONTypeIsNull       = "json_type(?, ?) = 'null'"
	spanAttrCollection       = "collection"
	spanAttrDocumentID       = "document_id"
	spanAttrConstraintCount  = "constraint_count"
	notFoundMessageNoDocToUp = "no document to update"
)

// Client is a docstore.Client backed by a SQLite database.
type Client struct {
	db           *sqlx.DB
	tableName    string
	pollInterval time.Duration
	now          func() time.Time
	instruments  *observe.Instruments
	changes      *watch.Broadcaster
}

type documentRow struct {
	ID         string `db:"id"`
	Data       string `db:"data"`
	CreateTime string `db:"create_time"`
	UpdateTime string `db:"update_time"`
}

// Open opens (or creates) the SQLite database file at path in WAL mode.
// Use ":memory:" for a private in-memory database.
func Open(path string, options ...Option) (*Client, error) {
	db, err := sqlx.Open(driverName, "file:"+path+"?"+dsnParams)
	if err != nil {
		return nil, toDocstoreError(err)
	}

	// A single connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	c, err := NewClient(db, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return c, nil
}

// NewClient creates a new Client on an already opened sqlite3 database.
func NewClient(db *sqlx.DB, options ...Option) (*Client, error) {
	if db == nil {
		return nil, docstore.ErrNilDatabaseConnection
	}

	c := &Client{
		db:           db,
		tableName:    defaultTableName,
		pollInterval: defaultPollInterval,
		now:          time.Now,
		instruments:  &observe.Instruments{Prefix: metricsPrefix},
		changes:      watch.NewBroadcaster(),
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Close closes the underlying database.
func (c *Client) Close() error {
	return c.db.Close()
}

// EnsureSchema creates the documents table and its index if they do not exist.
func (c *Client) EnsureSchema(ctx context.Context) error {
	op, ctx := c.instruments.Start(ctx, operationEnsureSchema, nil)

	ddl := fmt.Sprintf(schemaTemplate, quoteIdentifier(c.tableName), quoteIdentifier(c.tableName+"_collection_seq_idx"))
	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		mapped := toDocstoreError(err)
		c.instruments.LogError(ctx, logMsgDBExecFailed, err, logAttrQuery, ddl)
		op.Error(string(mapped.Code))

		return errors.Join(docstore.ErrEnsuringSchemaFailed, mapped)
	}

	op.Success(-1)
	c.instruments.LogOperation(ctx, operationEnsureSchema)

	return nil
}

/***** Reads *****/

// GetDocument reads one document. A missing document is not an error: the snapshot has Exists=false.
func (c *Client) GetDocument(ctx context.Context, ref docstore.DocumentRef) (docstore.DocumentSnapshot, error) {
	if err := ref.Validate(); err != nil {
		return docstore.DocumentSnapshot{}, err
	}

	op, ctx := c.instruments.Start(ctx, operationGet, map[string]string{
		spanAttrCollection: ref.Collection,
		spanAttrDocumentID: ref.ID,
	})

	docs, err := c.selectDocuments(ctx, operationGet, c.selectColumns().Where(c.refConditions(ref)...))
	if err != nil {
		op.Error(errorType(err))
		return docstore.DocumentSnapshot{}, err
	}

	snapshot := docstore.DocumentSnapshot{ID: ref.ID}
	if len(docs) > 0 {
		snapshot = docs[0]
	}

	duration := op.Success(len(docs))
	c.instruments.LogOperation(ctx, operationGet,
		logAttrCollection, ref.Collection,
		logAttrDocumentID, ref.ID,
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
	})

	selectStmt, err := c.buildSelect(query)
	if err != nil {
		op.Error(errorType(err))
		return docstore.QuerySnapshot{}, err
	}

	docs, err := c.selectDocuments(ctx, operationQuery, selectStmt)
	if err != nil {
		op.Error(errorType(err))
		return docstore.QuerySnapshot{}, err
	}

	duration := op.Success(len(docs))
	c.instruments.LogOperation(ctx, operationQuery,
		logAttrCollection, query.Collection,
		logAttrDocumentCount, len(docs),
		logAttrDurationMS, observe.ToMilliseconds(duration))

	return docstore.QuerySnapshot{Docs: docs}, nil
}

// WatchDocument yields the document's state whenever it changed.
func (c *Client) WatchDocument(ctx context.Context, ref docstore.DocumentRef) docstore.DocumentSnapshotIterator {
	if err := ref.Validate(); err != nil {
		return watch.Failed[docstore.DocumentSnapshot](err)
	}

	return watch.New(ctx, func(ctx context.Context) (docstore.DocumentSnapshot, error) {
		return c.GetDocument(ctx, ref)
	}, c.trigger())
}

// WatchQuery yields the query result whenever it changed.
func (c *Client) WatchQuery(ctx context.Context, query docstore.Query) docstore.QuerySnapshotIterator {
	if err := query.Validate(); err != nil {
		return watch.Failed[docstore.QuerySnapshot](err)
	}

	return watch.New(ctx, func(ctx context.Context) (docstore.QuerySnapshot, error) {
		return c.RunQuery(ctx, query)
	}, c.trigger())
}

func (c *Client) trigger() watch.Trigger {
	return watch.Either(c.changes.Trigger(), watch.Poll(c.pollInterval))
}

func (c *Client) selectDocuments(ctx context.Context, action string, selectStmt *goqu.SelectDataset) ([]docstore.DocumentSnapshot, error) {
	sqlQuery, args, err := selectStmt.ToSQL()
	if err != nil {
		c.instruments.LogError(ctx, logMsgBuildQueryFailed, err)
		return nil, errors.Join(docstore.ErrBuildingQueryFailed, docstore.NewError(docstore.CodeInternal, "", err))
	}

	start := time.Now()

	rows, err := c.db.QueryxContext(ctx, sqlQuery, args...)
	if err != nil {
		c.instruments.LogError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return nil, errors.Join(docstore.ErrQueryingFailed, toDocstoreError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			c.instruments.LogWarn(ctx, logMsgCloseRowsFailed, closeErr)
		}
	}()

	c.instruments.LogQuery(ctx, sqlQuery, action, time.Since(start))

	docs := make([]docstore.DocumentSnapshot, 0)
	for rows.Next() {
		var row documentRow
		if err = rows.StructScan(&row); err != nil {
			c.instruments.LogError(ctx, logMsgScanRowFailed, err)
			return nil, errors.Join(docstore.ErrScanningDBRowFailed, toDocstoreError(err))
		}

		snapshot, convErr := row.toSnapshot()
		if convErr != nil {
			c.instruments.LogError(ctx, logMsgScanRowFailed, convErr, logAttrDocumentID, row.ID)
			return nil, errors.Join(docstore.ErrScanningDBRowFailed, docstore.NewError(docstore.CodeInternal, "stored document is malformed", convErr))
		}

		docs = append(docs, snapshot)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Join(docstore.ErrQueryingFailed, toDocstoreError(err))
	}

	return docs, nil
}

func (r documentRow) toSnapshot() (docstore.DocumentSnapshot, error) {
	fields, err := codec.Decode([]byte(r.Data))
	if err != nil {
		return docstore.DocumentSnapshot{}, err
	}

	createTime, err := time.Parse(timeLayout, r.CreateTime)
	if err != nil {
		return docstore.DocumentSnapshot{}, err
	}

	updateTime, err := time.Parse(timeLayout, r.UpdateTime)
	if err != nil {
		return docstore.DocumentSnapshot{}, err
	}

	return docstore.DocumentSnapshot{
		ID:         r.ID,
		Exists:     true,
		Data:       fields,
		CreateTime: createTime,
		UpdateTime: updateTime,
	}, nil
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

	err = c.write(ctx, operationAdd, ref, func(tx *sqlx.Tx, now time.Time) error {
		return c.insert(ctx, tx, ref, fields, now)
	})
	if err != nil {
		return docstore.DocumentRef{}, err
	}

	return ref, nil
}

// Set creates the document or replaces all of its fields. A replaced document keeps its position
// in the natural order.
func (c *Client) Set(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	return c.write(ctx, operationSet, ref, func(tx *sqlx.Tx, now time.Time) error {
		data, err := encode(fields, now)
		if err != nil {
			return err
		}

		replaced, err := c.exec(ctx, tx, operationSet, goqu.Dialect(dialectSQLite).
			Update(c.tableName).
			Prepared(true).
			Set(goqu.Record{colData: string(data), colUpdateTime: formatTime(now)}).
			Where(c.refConditions(ref)...))
		if err != nil {
			return err
		}

		if replaced > 0 {
			return nil
		}

		return c.insert(ctx, tx, ref, fields, now)
	})
}

// Update merges the given top-level fields into an existing document.
func (c *Client) Update(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	return c.write(ctx, operationUpdate, ref, func(tx *sqlx.Tx, now time.Time) error {
		sqlQuery, args, err := goqu.Dialect(dialectSQLite).
			From(c.tableName).
			Prepared(true).
			Select(goqu.C(colData)).
			Where(c.refConditions(ref)...).
			ToSQL()
		if err != nil {
			return errors.Join(docstore.ErrBuildingQueryFailed, docstore.NewError(docstore.CodeInternal, "", err))
		}

		var stored string
		if err = tx.QueryRowxContext(ctx, sqlQuery, args...).Scan(&stored); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return docstore.NewError(docstore.CodeNotFound, notFoundMessageNoDocToUp+": "+ref.String(), nil)
			}

			return errors.Join(docstore.ErrQueryingFailed, toDocstoreError(err))
		}

		merged, err := codec.Decode([]byte(stored))
		if err != nil {
			return errors.Join(err, docstore.NewError(docstore.CodeInternal, "stored document is malformed", nil))
		}

		for key, value := range fields {
			merged[key] = value
		}

		data, err := encode(merged, now)
		if err != nil {
			return err
		}

		_, err = c.exec(ctx, tx, operationUpdate, goqu.Dialect(dialectSQLite).
			Update(c.tableName).
			Prepared(true).
			Set(goqu.Record{colData: string(data), colUpdateTime: formatTime(now)}).
			Where(c.refConditions(ref)...))

		return err
	})
}

// Delete removes the document. Deleting a missing document succeeds.
func (c *Client) Delete(ctx context.Context, ref docstore.DocumentRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	return c.write(ctx, operationDelete, ref, func(tx *sqlx.Tx, _ time.Time) error {
		_, err := c.exec(ctx, tx, operationDelete, goqu.Dialect(dialectSQLite).
			Delete(c.tableName).
			Prepared(true).
			Where(c.refConditions(ref)...))

		return err
	})
}

// write runs one write operation inside a transaction and wakes up local watches on success.
func (c *Client) write(
	ctx context.Context,
	operation string,
	ref docstore.DocumentRef,
	apply func(tx *sqlx.Tx, now time.Time) error,
) error {

	op, ctx := c.instruments.Start(ctx, operation, map[string]string{
		spanAttrCollection: ref.Collection,
		spanAttrDocumentID: ref.ID,
	})

	err := c.inTransaction(ctx, func(tx *sqlx.Tx) error {
		return apply(tx, c.now())
	})
	if err != nil {
		op.Error(errorType(err))
		return errors.Join(docstore.ErrWritingFailed, err)
	}

	duration := op.Success(-1)
	c.instruments.LogOperation(ctx, operation,
		logAttrCollection, ref.Collection,
		logAttrDocumentID, ref.ID,
		logAttrDurationMS, observe.ToMilliseconds(duration))

	c.changes.Broadcast()

	return nil
}

func (c *Client) inTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return toDocstoreError(err)
	}

	if err = fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			c.instruments.LogWarn(ctx, logMsgRollbackFailed, rollbackErr)
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return toDocstoreError(err)
	}

	return nil
}

func (c *Client) insert(ctx context.Context, tx *sqlx.Tx, ref docstore.DocumentRef, fields docstore.Fields, now time.Time) error {
	data, err := encode(fields, now)
	if err != nil {
		return err
	}

	_, err = c.exec(ctx, tx, operationAdd, goqu.Dialect(dialectSQLite).
		Insert(c.tableName).
		Prepared(true).
		Rows(goqu.Record{
			colCollection: ref.Collection,
			colID:         ref.ID,
			colData:       string(data),
			colCreateTime: formatTime(now),
			colUpdateTime: formatTime(now),
		}))

	return err
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (c *Client) exec(ctx context.Context, tx *sqlx.Tx, action string, stmt sqlBuilder) (int64, error) {
	sqlQuery, args, err := stmt.ToSQL()
	if err != nil {
		c.instruments.LogError(ctx, logMsgBuildQueryFailed, err)
		return 0, errors.Join(docstore.ErrBuildingQueryFailed, docstore.NewError(docstore.CodeInternal, "", err))
	}

	start := time.Now()

	result, err := tx.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		c.instruments.LogError(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)
		return 0, toDocstoreError(err)
	}

	c.instruments.LogQuery(ctx, sqlQuery, action, time.Since(start))

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, toDocstoreError(err)
	}

	return rowsAffected, nil
}

/***** SQL building *****/

func (c *Client) selectColumns() *goqu.SelectDataset {
	return goqu.Dialect(dialectSQLite).
		From(c.tableName).
		Prepared(true).
		Select(goqu.C(colID), goqu.C(colData), goqu.C(colCreateTime), goqu.C(colUpdateTime))
}

func (c *Client) refConditions(ref docstore.DocumentRef) []exp.Expression {
	return []exp.Expression{
		goqu.C(colCollection).Eq(ref.Collection),
		goqu.C(colID).Eq(ref.ID),
	}
}

func (c *Client) buildSelect(query docstore.Query) (*goqu.SelectDataset, error) {
	conditions := []exp.Expression{goqu.C(colCollection).Eq(query.Collection)}

	for _, constraint := range query.Constraints {
		condition, err := constraintCondition(constraint)
		if err != nil {
			return nil, err
		}

		conditions = append(conditions, condition)
	}

	selectStmt := c.selectColumns().
		Where(conditions...).
		Order(goqu.C(colSeq).Asc())

	if query.Limit > 0 {
		selectStmt = selectStmt.Limit(uint(query.Limit))
	}

	return selectStmt, nil
}

// constraintCondition compiles one equality constraint into a json_extract comparison. JSON
// booleans extract as 0/1 and objects/arrays as their minified JSON text.
func constraintCondition(constraint docstore.Constraint) (exp.Expression, error) {
	path := jsonPath(constraint.Field)

	value, err := codec.NormalizeValue(constraint.Value)
	if err != nil {
		return nil, errors.Join(docstore.ErrBuildingQueryFailed, docstore.NewError(docstore.CodeInvalidArgument, "constraint value is not encodable", err))
	}

	switch v := value.(type) {
	case nil:
		return goqu.L(exprJSONTypeIsNull, goqu.C(colData), path), nil
	case bool:
		arg := 0
		if v {
			arg = 1
		}

		return goqu.L(exprJSONExtractEquals, goqu.C(colData), path, arg), nil
	case map[string]any, []any:
		raw, encodeErr := codec.EncodeValue(v)
		if encodeErr != nil {
			return nil, errors.Join(docstore.ErrBuildingQueryFailed, encodeErr)
		}

		return goqu.L(exprJSONExtractEquals, goqu.C(colData), path, string(raw)), nil
	default:
		return goqu.L(exprJSONExtractEquals, goqu.C(colData), path, v), nil
	}
}

func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func encode(fields docstore.Fields, now time.Time) ([]byte, error) {
	data, err := codec.Encode(fields, now)
	if err != nil {
		return nil, errors.Join(err, docstore.NewError(docstore.CodeInvalidArgument, "fields are not encodable", nil))
	}

	return data, nil
}
