package db

import (
	"context"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Table is a schema-qualified Postgres table.
type Table struct {
	Schema string
	Name   string
}

// String renders the table as schema.name.
func (t Table) String() string { return t.Schema + "." + t.Name }

// Ident is the quoted identifier of the table.
func (t Table) Ident() pgx.Identifier { return pgx.Identifier{t.Schema, t.Name} }

// StagingTable is the session-local table Merge copies rows into.
func (t Table) StagingTable() string { return "stage_" + t.Name }

// Merge copies rows into a staging table and folds them into t keyed on
// key. Existing rows get every other column replaced. The whole merge is
// one transaction; the staging table is dropped on commit.
func Merge(ctx context.Context, pool Pool, t Table, key string, cols []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if !slices.Contains(cols, key) {
		return 0, eris.Errorf("db: merge %s: key %q not in column list", t, key)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: begin", t)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stage := pgx.Identifier{t.StagingTable()}
	if _, err := tx.Exec(ctx, stagingDDL(t)); err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: create staging table", t)
	}
	if _, err := tx.CopyFrom(ctx, stage, cols, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: copy rows", t)
	}

	tag, err := tx.Exec(ctx, mergeSQL(t, key, cols))
	if err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: insert on conflict", t)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: commit", t)
	}
	return tag.RowsAffected(), nil
}

func stagingDDL(t Table) string {
	return "CREATE TEMP TABLE " + pgx.Identifier{t.StagingTable()}.Sanitize() +
		" (LIKE " + t.Ident().Sanitize() + " INCLUDING DEFAULTS) ON COMMIT DROP"
}

func mergeSQL(t Table, key string, cols []string) string {
	quoted := make([]string, len(cols))
	var sets []string
	for i, c := range cols {
		q := pgx.Identifier{c}.Sanitize()
		quoted[i] = q
		if c != key {
			sets = append(sets, q+" = EXCLUDED."+q)
		}
	}
	list := strings.Join(quoted, ", ")

	var b strings.Builder
	b.WriteString("INSERT INTO " + t.Ident().Sanitize() + " (" + list + ")")
	b.WriteString(" SELECT " + list + " FROM " + pgx.Identifier{t.StagingTable()}.Sanitize())
	b.WriteString(" ON CONFLICT (" + pgx.Identifier{key}.Sanitize() + ")")
	if len(sets) == 0 {
		b.WriteString(" DO NOTHING")
	} else {
		b.WriteString(" DO UPDATE SET " + strings.Join(sets, ", "))
	}
	return b.String()
}
