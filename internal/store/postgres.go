package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/places-collector/internal/db"
	"github.com/sells-group/places-collector/internal/model"
)

// EntitiesTable is the Postgres entity table.
var EntitiesTable = db.Table{Schema: "places", Name: "entities"}

// PostgresStore implements Store using pgxpool. Entities carry a PostGIS
// point geometry next to the raw coordinates.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Close does not close it.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;
CREATE SCHEMA IF NOT EXISTS places;

CREATE TABLE IF NOT EXISTS places.runs (
	id               TEXT PRIMARY KEY,
	scope            TEXT NOT NULL,
	started_at       TIMESTAMPTZ NOT NULL,
	last_updated     TIMESTAMPTZ NOT NULL,
	total_points     INTEGER NOT NULL DEFAULT 0,
	completed_points INTEGER NOT NULL DEFAULT 0,
	entities_found   INTEGER NOT NULL DEFAULT 0,
	errors           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS places.entities (
	id                TEXT PRIMARY KEY,
	run_id            TEXT NOT NULL,
	name              TEXT NOT NULL,
	formatted_address TEXT NOT NULL DEFAULT '',
	city              TEXT NOT NULL DEFAULT '',
	state             TEXT NOT NULL DEFAULT '',
	zip_code          TEXT NOT NULL DEFAULT '',
	latitude          DOUBLE PRECISION,
	longitude         DOUBLE PRECISION,
	geom              geometry(Point, 4326),
	phone             TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	provider_ids      JSONB NOT NULL DEFAULT '{}',
	ratings           JSONB NOT NULL DEFAULT '{}',
	categories        JSONB NOT NULL DEFAULT '[]',
	sources           JSONB NOT NULL DEFAULT '[]',
	notes             TEXT NOT NULL DEFAULT '',
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_places_entities_geom ON places.entities USING GIST (geom);
CREATE INDEX IF NOT EXISTS idx_places_entities_state ON places.entities (state);
`

// Migrate creates the schema, tables and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool when the store owns it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveRun inserts or updates a run ledger row.
func (s *PostgresStore) SaveRun(ctx context.Context, run Run) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO places.runs (id, scope, started_at, last_updated, total_points, completed_points, entities_found, errors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			scope = EXCLUDED.scope,
			last_updated = EXCLUDED.last_updated,
			total_points = EXCLUDED.total_points,
			completed_points = EXCLUDED.completed_points,
			entities_found = EXCLUDED.entities_found,
			errors = EXCLUDED.errors`,
		run.ID, run.Scope, run.StartedAt.UTC(), run.LastUpdated.UTC(),
		run.TotalPoints, run.CompletedPoints, run.EntitiesFound, run.Errors,
	)
	return eris.Wrapf(err, "postgres: save run %s", run.ID)
}

// PostgresEntityColumns is the COPY column list for the entities table.
var PostgresEntityColumns = append(append([]string{}, entityColumns...), "geom")

// UpsertEntities bulk-loads entities through a COPY staging table.
func (s *PostgresStore) UpsertEntities(ctx context.Context, runID string, entities []model.Entity) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(entities))
	for _, e := range entities {
		row, err := entityRow(runID, e, now)
		if err != nil {
			return 0, err
		}
		geom, err := db.EncodePoint(e.Latitude, e.Longitude)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: entity %s", e.ID)
		}
		rows = append(rows, append(row, geom))
	}

	n, err := db.Merge(ctx, s.pool, EntitiesTable, "id", PostgresEntityColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert entities")
	}
	return n, nil
}
