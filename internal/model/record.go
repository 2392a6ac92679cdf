// Package model defines the place records exchanged between provider adapters,
// the deduplicator, and the persisted catalog.
package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Provider source tags. The order of SourcePriority is the order in which
// provider identifiers are preferred when deriving a canonical ID.
const (
	SourceGoogle = "google_places"
	SourceYelp   = "yelp"
	SourceOSM    = "osm"
)

// SourcePriority lists provider sources in canonical-ID preference order.
var SourcePriority = []string{SourceGoogle, SourceYelp, SourceOSM}

// ErrInvalidRecord is returned when an adapter produces a record that cannot
// be ingested.
var ErrInvalidRecord = eris.New("model: invalid record")

// Record is a single normalized sighting of a place, as produced by one
// provider adapter. Optional numeric fields are nil when the provider did not
// report them.
type Record struct {
	Source           string   `json:"source"`
	ProviderID       string   `json:"provider_id,omitempty"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
	Street           string   `json:"street,omitempty"`
	City             string   `json:"city,omitempty"`
	State            string   `json:"state,omitempty"`
	ZipCode          string   `json:"zip_code,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Website          string   `json:"website,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	ReviewCount      *int     `json:"review_count,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// Validate checks the invariants an adapter must uphold before a record is
// handed to the deduplicator.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return eris.Wrap(ErrInvalidRecord, "missing source")
	}
	if strings.TrimSpace(r.Name) == "" {
		return eris.Wrap(ErrInvalidRecord, "missing name")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return eris.Wrap(ErrInvalidRecord, "latitude and longitude must be set together")
	}
	if r.Latitude != nil {
		if *r.Latitude < -90 || *r.Latitude > 90 {
			return eris.Wrapf(ErrInvalidRecord, "latitude %f out of range", *r.Latitude)
		}
		if *r.Longitude < -180 || *r.Longitude > 180 {
			return eris.Wrapf(ErrInvalidRecord, "longitude %f out of range", *r.Longitude)
		}
	}
	if r.ReviewCount != nil && *r.ReviewCount < 0 {
		return eris.Wrap(ErrInvalidRecord, "negative review count")
	}
	return nil
}

// HasCoordinates reports whether both coordinates are present.
func (r Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Ptr returns a pointer to v. Adapters use it to mark optional fields present.
func Ptr[T any](v T) *T {
	return &v
}
