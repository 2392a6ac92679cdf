// Package provider adapts external place-data APIs to a common search and
// normalize contract.
package provider

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/places-collector/internal/model"
)

// ErrMissingCredential reports that an enabled provider has no API key.
var ErrMissingCredential = eris.New("provider: missing credential")

// LatLng is a search center.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Provider is one external place-data source.
//
// Search returns the provider's raw records for query around center; a
// well-formed empty response yields an empty slice and no error. Normalize
// maps one raw record to a validated model.Record tagged with Name().
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, center LatLng, radiusM int) ([]json.RawMessage, error)
	Normalize(raw json.RawMessage) (model.Record, error)
}
