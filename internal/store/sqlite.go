package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/places-collector/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, eris.New("sqlite: empty path")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck,gosec
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	scope            TEXT NOT NULL,
	started_at       DATETIME NOT NULL,
	last_updated     DATETIME NOT NULL,
	total_points     INTEGER NOT NULL DEFAULT 0,
	completed_points INTEGER NOT NULL DEFAULT 0,
	entities_found   INTEGER NOT NULL DEFAULT 0,
	errors           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS entities (
	id                TEXT PRIMARY KEY,
	run_id            TEXT NOT NULL,
	name              TEXT NOT NULL,
	formatted_address TEXT NOT NULL DEFAULT '',
	city              TEXT NOT NULL DEFAULT '',
	state             TEXT NOT NULL DEFAULT '',
	zip_code          TEXT NOT NULL DEFAULT '',
	latitude          REAL,
	longitude         REAL,
	phone             TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	provider_ids      TEXT NOT NULL DEFAULT '{}',
	ratings           TEXT NOT NULL DEFAULT '{}',
	categories        TEXT NOT NULL DEFAULT '[]',
	sources           TEXT NOT NULL DEFAULT '[]',
	notes             TEXT NOT NULL DEFAULT '',
	updated_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entities_run_id ON entities(run_id);
CREATE INDEX IF NOT EXISTS idx_entities_state ON entities(state);
`

// Migrate creates the run ledger and entity tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts or updates a run ledger row.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, scope, started_at, last_updated, total_points, completed_points, entities_found, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scope = excluded.scope,
			last_updated = excluded.last_updated,
			total_points = excluded.total_points,
			completed_points = excluded.completed_points,
			entities_found = excluded.entities_found,
			errors = excluded.errors`,
		run.ID, run.Scope, run.StartedAt.UTC(), run.LastUpdated.UTC(),
		run.TotalPoints, run.CompletedPoints, run.EntitiesFound, run.Errors,
	)
	return eris.Wrapf(err, "sqlite: save run %s", run.ID)
}

// UpsertEntities writes entities in one transaction, replacing rows with the
// same id.
func (s *SQLiteStore) UpsertEntities(ctx context.Context, runID string, entities []model.Entity) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsertSQL())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare entity upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	var n int64
	for _, e := range entities {
		row, err := entityRow(runID, e, now)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert entity %s", e.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit entities")
	}
	return n, nil
}

func sqliteUpsertSQL() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(entityColumns)), ", ")
	sets := make([]string, 0, len(entityColumns)-1)
	for _, c := range entityColumns[1:] {
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	return fmt.Sprintf("INSERT INTO entities (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(entityColumns, ", "), placeholders, strings.Join(sets, ", "))
}

// GetEntity reads one entity back. It returns nil when id is unknown.
func (s *SQLiteStore) GetEntity(ctx context.Context, id string) (*model.Entity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, formatted_address, city, state, zip_code, latitude, longitude,
			phone, website, provider_ids, ratings, categories, sources, notes
		FROM entities WHERE id = ?`, id)

	var e model.Entity
	var lat, lon sql.NullFloat64
	var providerIDs, ratings, categories, sourceSet string
	err := row.Scan(&e.ID, &e.Name, &e.FormattedAddress, &e.City, &e.State, &e.ZipCode, &lat, &lon,
		&e.Phone, &e.Website, &providerIDs, &ratings, &categories, &sourceSet, &e.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get entity %s", id)
	}
	if lat.Valid && lon.Valid {
		e.Latitude = model.Ptr(lat.Float64)
		e.Longitude = model.Ptr(lon.Float64)
	}
	for _, f := range []struct {
		raw string
		dst any
	}{
		{providerIDs, &e.ProviderIDs},
		{ratings, &e.Ratings},
		{categories, &e.Categories},
		{sourceSet, &e.Sources},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode entity %s", id)
		}
	}
	return &e, nil
}

// CountEntities returns the number of stored entities.
func (s *SQLiteStore) CountEntities(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count entities")
	}
	return n, nil
}
