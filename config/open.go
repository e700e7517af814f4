package config

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver for the sql and sqlx adapters

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/docstore/memengine"
	"github.com/heavy-duty/docstate/docstore/postgresengine"
	"github.com/heavy-duty/docstate/docstore/sqliteengine"
)

var ErrOpeningEngineFailed = errors.New("opening engine failed")

const postgresDriverName = "postgres"

// Observability carries the optional collectors handed to the opened engine.
type Observability struct {
	Logger           docstore.Logger
	ContextualLogger docstore.ContextualLogger
	Metrics          docstore.MetricsCollector
	Tracing          docstore.TracingCollector
}

// Handle is an opened document engine.
type Handle struct {
	Client       docstore.Client
	ensureSchema func(ctx context.Context) error
	closers      []func()
}

// EnsureSchema prepares the engine's storage. It is a no-op for the memory engine.
func (h *Handle) EnsureSchema(ctx context.Context) error {
	if h.ensureSchema == nil {
		return nil
	}

	return h.ensureSchema(ctx)
}

// Close releases every connection opened by Open.
func (h *Handle) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}

	h.closers = nil
}

// Open connects to the engine selected by cfg.
func Open(ctx context.Context, cfg Config, obs Observability) (*Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Engine {
	case EnginePostgres:
		return openPostgres(ctx, cfg, obs)
	case EngineSQLite:
		return openSQLite(cfg, obs)
	default:
		return openMemory()
	}
}

func openMemory() (*Handle, error) {
	client, err := memengine.New()
	if err != nil {
		return nil, errors.Join(ErrOpeningEngineFailed, err)
	}

	return &Handle{Client: client}, nil
}

func openSQLite(cfg Config, obs Observability) (*Handle, error) {
	options := []sqliteengine.Option{
		sqliteengine.WithPollInterval(cfg.PollInterval),
		sqliteengine.WithLogger(obs.Logger),
		sqliteengine.WithContextualLogger(obs.ContextualLogger),
		sqliteengine.WithMetrics(obs.Metrics),
		sqliteengine.WithTracing(obs.Tracing),
	}

	if cfg.TableName != "" {
		options = append(options, sqliteengine.WithTableName(cfg.TableName))
	}

	client, err := sqliteengine.Open(cfg.SQLite.Path, options...)
	if err != nil {
		return nil, errors.Join(ErrOpeningEngineFailed, err)
	}

	return &Handle{
		Client:       client,
		ensureSchema: client.EnsureSchema,
		closers:      []func(){func() { _ = client.Close() }},
	}, nil
}

func openPostgres(ctx context.Context, cfg Config, obs Observability) (*Handle, error) {
	options := []postgresengine.Option{
		postgresengine.WithPollInterval(cfg.PollInterval),
		postgresengine.WithLogger(obs.Logger),
		postgresengine.WithContextualLogger(obs.ContextualLogger),
		postgresengine.WithMetrics(obs.Metrics),
		postgresengine.WithTracing(obs.Tracing),
	}

	if cfg.TableName != "" {
		options = append(options, postgresengine.WithTableName(cfg.TableName))
	}

	handle := &Handle{}

	var (
		client *postgresengine.Client
		err    error
	)

	switch cfg.Postgres.Adapter {
	case AdapterSQL:
		client, err = openPostgresSQL(ctx, cfg.Postgres, handle, options)
	case AdapterSQLX:
		client, err = openPostgresSQLX(ctx, cfg.Postgres, handle, options)
	default:
		client, err = openPostgresPGXPool(ctx, cfg.Postgres, handle, options)
	}

	if err != nil {
		handle.Close()
		return nil, errors.Join(ErrOpeningEngineFailed, err)
	}

	handle.Client = client
	handle.ensureSchema = client.EnsureSchema

	return handle, nil
}

// PGXPoolConfig builds the pool configuration for dsn with the connection limits of pc.
func PGXPoolConfig(pc PostgresConfig, dsn string) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = pc.MaxConns
	poolConfig.MinConns = pc.MinConns
	poolConfig.MaxConnLifetime = pc.MaxConnLifetime
	poolConfig.MaxConnIdleTime = pc.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = pc.HealthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = pc.ConnectTimeout

	return poolConfig, nil
}

func newPool(ctx context.Context, pc PostgresConfig, dsn string, handle *Handle) (*pgxpool.Pool, error) {
	poolConfig, err := PGXPoolConfig(pc, dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	handle.closers = append(handle.closers, pool.Close)

	if err = pool.Ping(ctx); err != nil {
		return nil, err
	}

	return pool, nil
}

func openPostgresPGXPool(
	ctx context.Context,
	pc PostgresConfig,
	handle *Handle,
	options []postgresengine.Option,
) (*postgresengine.Client, error) {

	primary, err := newPool(ctx, pc, pc.DSN, handle)
	if err != nil {
		return nil, err
	}

	if pc.ReplicaDSN == "" {
		return postgresengine.NewClientFromPGXPool(primary, options...)
	}

	replica, err := newPool(ctx, pc, pc.ReplicaDSN, handle)
	if err != nil {
		return nil, err
	}

	return postgresengine.NewClientFromPGXPoolWithReplica(primary, replica, options...)
}

func configureDB(db *sql.DB, pc PostgresConfig) {
	db.SetMaxOpenConns(int(pc.MaxConns))
	db.SetMaxIdleConns(int(pc.MinConns))
	db.SetConnMaxLifetime(pc.MaxConnLifetime)
	db.SetConnMaxIdleTime(pc.MaxConnIdleTime)
}

func pingContext(ctx context.Context, pc PostgresConfig) (context.Context, context.CancelFunc) {
	timeout := pc.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	return context.WithTimeout(ctx, timeout)
}

func openPostgresSQL(
	ctx context.Context,
	pc PostgresConfig,
	handle *Handle,
	options []postgresengine.Option,
) (*postgresengine.Client, error) {

	db, err := sql.Open(postgresDriverName, pc.DSN)
	if err != nil {
		return nil, err
	}

	handle.closers = append(handle.closers, func() { _ = db.Close() })
	configureDB(db, pc)

	pingCtx, cancel := pingContext(ctx, pc)
	defer cancel()

	if err = db.PingContext(pingCtx); err != nil {
		return nil, err
	}

	return postgresengine.NewClientFromSQLDB(db, options...)
}

func openPostgresSQLX(
	ctx context.Context,
	pc PostgresConfig,
	handle *Handle,
	options []postgresengine.Option,
) (*postgresengine.Client, error) {

	db, err := sqlx.Open(postgresDriverName, pc.DSN)
	if err != nil {
		return nil, err
	}

	handle.closers = append(handle.closers, func() { _ = db.Close() })
	configureDB(db.DB, pc)

	pingCtx, cancel := pingContext(ctx, pc)
	defer cancel()

	if err = db.PingContext(pingCtx); err != nil {
		return nil, err
	}

	return postgresengine.NewClientFromSQLX(db, options...)
}
