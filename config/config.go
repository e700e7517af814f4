package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrReadingConfigFailed = errors.New("reading config failed")
	ErrInvalidConfig       = errors.New("invalid config")
)

type Engine string

const (
	EnginePostgres Engine = "postgres"
	EngineSQLite   Engine = "sqlite"
	EngineMemory   Engine = "memory"
)

type PostgresAdapter string

const (
	AdapterPGXPool PostgresAdapter = "pgxpool"
	AdapterSQL     PostgresAdapter = "sql"
	AdapterSQLX    PostgresAdapter = "sqlx"
)

const (
	defaultMaxConnections    = int32(50)
	defaultMinConnections    = int32(2)
	defaultMaxConnLifetime   = time.Hour
	defaultMaxConnIdleTime   = time.Minute * 5
	defaultHealthCheckPeriod = time.Minute
	defaultConnectTimeout    = time.Second * 5
	defaultPollInterval      = time.Second
	defaultSQLitePath        = "docstate.db"
)

// Environment variables read by Load.
const (
	EnvEngine             = "DOCSTATE_ENGINE"
	EnvLogLevel           = "DOCSTATE_LOG_LEVEL"
	EnvPollInterval       = "DOCSTATE_POLL_INTERVAL"
	EnvPostgresAdapter    = "DOCSTATE_POSTGRES_ADAPTER"
	EnvPostgresDSN        = "DOCSTATE_POSTGRES_DSN"
	EnvPostgresReplicaDSN = "DOCSTATE_POSTGRES_REPLICA_DSN"
	EnvPostgresMaxConns   = "DOCSTATE_POSTGRES_MAX_CONNS"
	EnvSQLitePath         = "DOCSTATE_SQLITE_PATH"
	EnvTableName          = "DOCSTATE_TABLE_NAME"
)

type Config struct {
	Engine       Engine         `yaml:"engine"`
	LogLevel     string         `yaml:"log_level"`
	PollInterval time.Duration  `yaml:"poll_interval"`
	TableName    string         `yaml:"table_name"`
	Postgres     PostgresConfig `yaml:"postgres"`
	SQLite       SQLiteConfig   `yaml:"sqlite"`
}

type PostgresConfig struct {
	Adapter           PostgresAdapter `yaml:"adapter"`
	DSN               string          `yaml:"dsn"`
	ReplicaDSN        string          `yaml:"replica_dsn"`
	MaxConns          int32           `yaml:"max_conns"`
	MinConns          int32           `yaml:"min_conns"`
	MaxConnLifetime   time.Duration   `yaml:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration   `yaml:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration   `yaml:"health_check_period"`
	ConnectTimeout    time.Duration   `yaml:"connect_timeout"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when neither a file nor environment variables set a value.
func Default() Config {
	return Config{
		Engine:       EngineMemory,
		LogLevel:     "info",
		PollInterval: defaultPollInterval,
		Postgres: PostgresConfig{
			Adapter:           AdapterPGXPool,
			MaxConns:          defaultMaxConnections,
			MinConns:          defaultMinConnections,
			MaxConnLifetime:   defaultMaxConnLifetime,
			MaxConnIdleTime:   defaultMaxConnIdleTime,
			HealthCheckPeriod: defaultHealthCheckPeriod,
			ConnectTimeout:    defaultConnectTimeout,
		},
		SQLite: SQLiteConfig{Path: defaultSQLitePath},
	}
}

// Load reads the YAML file at path over Default, applies the DOCSTATE_* environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Join(ErrReadingConfigFailed, err)
		}

		if err = Parse(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Parse decodes YAML into cfg, keeping values the document does not mention. Unknown keys fail.
func Parse(raw []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(ErrReadingConfigFailed, err)
	}

	return nil
}

// ApplyEnv overrides cfg with the DOCSTATE_* variables that lookup finds.
func ApplyEnv(cfg *Config, lookup func(key string) (string, bool)) error {
	str := func(key string, target *string) {
		if value, ok := lookup(key); ok && value != "" {
			*target = value
		}
	}

	var engine, adapter string
	str(EnvEngine, &engine)
	str(EnvPostgresAdapter, &adapter)

	if engine != "" {
		cfg.Engine = Engine(engine)
	}

	if adapter != "" {
		cfg.Postgres.Adapter = PostgresAdapter(adapter)
	}

	str(EnvLogLevel, &cfg.LogLevel)
	str(EnvPostgresDSN, &cfg.Postgres.DSN)
	str(EnvPostgresReplicaDSN, &cfg.Postgres.ReplicaDSN)
	str(EnvSQLitePath, &cfg.SQLite.Path)
	str(EnvTableName, &cfg.TableName)

	if value, ok := lookup(EnvPollInterval); ok && value != "" {
		interval, err := time.ParseDuration(value)
		if err != nil {
			return errors.Join(ErrInvalidConfig, fmt.Errorf("%s: %w", EnvPollInterval, err))
		}

		cfg.PollInterval = interval
	}

	if value, ok := lookup(EnvPostgresMaxConns); ok && value != "" {
		maxConns, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return errors.Join(ErrInvalidConfig, fmt.Errorf("%s: %w", EnvPostgresMaxConns, err))
		}

		cfg.Postgres.MaxConns = int32(maxConns)
	}

	return nil
}

// Validate reports the first inconsistency of cfg.
func (cfg Config) Validate() error {
	if _, err := cfg.SlogLevel(); err != nil {
		return err
	}

	if cfg.PollInterval <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("poll_interval must be positive"))
	}

	switch cfg.Engine {
	case EngineMemory:
		return nil

	case EngineSQLite:
		if cfg.SQLite.Path == "" {
			return errors.Join(ErrInvalidConfig, errors.New("sqlite.path must not be empty"))
		}

		return nil

	case EnginePostgres:
		return cfg.Postgres.validate()

	default:
		return errors.Join(ErrInvalidConfig, fmt.Errorf("unknown engine %q", cfg.Engine))
	}
}

func (pc PostgresConfig) validate() error {
	if pc.DSN == "" {
		return errors.Join(ErrInvalidConfig, errors.New("postgres.dsn must not be empty"))
	}

	switch pc.Adapter {
	case AdapterPGXPool, AdapterSQL, AdapterSQLX:
	default:
		return errors.Join(ErrInvalidConfig, fmt.Errorf("unknown postgres adapter %q", pc.Adapter))
	}

	if pc.ReplicaDSN != "" && pc.Adapter != AdapterPGXPool {
		return errors.Join(ErrInvalidConfig, errors.New("postgres.replica_dsn requires the pgxpool adapter"))
	}

	if pc.MaxConns <= 0 || pc.MinConns < 0 || pc.MinConns > pc.MaxConns {
		return errors.Join(ErrInvalidConfig, errors.New("postgres connection limits are inconsistent"))
	}

	return nil
}

// SlogLevel parses LogLevel.
func (cfg Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return 0, errors.Join(ErrInvalidConfig, err)
	}

	return level, nil
}
