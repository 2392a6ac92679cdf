// Package store persists the entity catalog of a collection run to SQLite or
// Postgres.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/places-collector/internal/config"
	"github.com/sells-group/places-collector/internal/model"
)

// Run is one collection run as recorded in the run ledger.
type Run struct {
	ID              string    `json:"id"`
	Scope           string    `json:"scope"`
	StartedAt       time.Time `json:"started_at"`
	LastUpdated     time.Time `json:"last_updated"`
	TotalPoints     int       `json:"total_points"`
	CompletedPoints int       `json:"completed_points"`
	EntitiesFound   int       `json:"entities_found"`
	Errors          int       `json:"errors"`
}

// Store is a catalog sink.
type Store interface {
	Migrate(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	UpsertEntities(ctx context.Context, runID string, entities []model.Entity) (int64, error)
	Close() error
}

// Open returns the sink selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		return NewSQLite(cfg.SQLitePath)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// entityColumns are the flattened entity fields shared by both sinks.
var entityColumns = []string{
	"id", "run_id", "name", "formatted_address", "city", "state", "zip_code",
	"latitude", "longitude", "phone", "website",
	"provider_ids", "ratings", "categories", "sources", "notes", "updated_at",
}

// entityRow flattens e in entityColumns order. Maps and slices are stored
// as JSON text.
func entityRow(runID string, e model.Entity, now time.Time) ([]any, error) {
	providerIDs, err := json.Marshal(e.ProviderIDs)
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal provider ids for %s", e.ID)
	}
	ratings, err := json.Marshal(e.Ratings)
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal ratings for %s", e.ID)
	}
	categories, err := json.Marshal(nonNil(e.Categories))
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal categories for %s", e.ID)
	}
	sources, err := json.Marshal(nonNil(e.Sources))
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal sources for %s", e.ID)
	}
	return []any{
		e.ID, runID, e.Name, e.FormattedAddress, e.City, e.State, e.ZipCode,
		e.Latitude, e.Longitude, e.Phone, e.Website,
		string(providerIDs), string(ratings), string(categories), string(sources), e.Notes, now,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
