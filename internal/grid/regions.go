package grid

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// ErrUnknownRegion is returned when a sub-region name has no bounding box.
var ErrUnknownRegion = eris.New("grid: unknown region")

// Area is the continental USA bounding box.
var Area = Box{MinLat: 24.5, MaxLat: 49.0, MinLon: -125.0, MaxLon: -66.5}

// Box is an axis-aligned latitude/longitude bounding box. Bounds are inclusive.
type Box struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Bound converts the box to an orb.Bound (X is longitude).
func (b Box) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// Contains reports whether (lat, lon) lies inside the box.
func (b Box) Contains(lat, lon float64) bool {
	return b.Bound().Contains(orb.Point{lon, lat})
}

type centroid struct {
	name string
	pt   orb.Point
}

// centroids is searched in order; the first minimum wins on ties.
var centroids = []centroid{
	{"TX", orb.Point{-100.0, 31.0}},
	{"OK", orb.Point{-97.5, 35.5}},
	{"MT", orb.Point{-110.0, 47.0}},
	{"WY", orb.Point{-107.5, 43.0}},
	{"AZ", orb.Point{-111.5, 34.0}},
	{"NM", orb.Point{-106.0, 34.5}},
	{"CO", orb.Point{-105.5, 39.0}},
	{"NV", orb.Point{-117.0, 39.0}},
	{"UT", orb.Point{-111.5, 39.0}},
	{"ID", orb.Point{-114.5, 44.0}},
	{"KS", orb.Point{-98.5, 38.5}},
	{"NE", orb.Point{-100.0, 41.5}},
	{"SD", orb.Point{-100.0, 44.5}},
	{"ND", orb.Point{-100.5, 47.5}},
	{"CA", orb.Point{-120.0, 37.0}},
	{"OR", orb.Point{-120.5, 44.0}},
	{"WA", orb.Point{-120.5, 47.5}},
	{"SC", orb.Point{-81.0, 34.0}},
	{"NC", orb.Point{-80.0, 35.5}},
	{"GA", orb.Point{-83.5, 32.5}},
	{"FL", orb.Point{-82.5, 28.0}},
	{"AL", orb.Point{-86.8, 32.8}},
	{"MS", orb.Point{-89.7, 32.7}},
	{"LA", orb.Point{-92.0, 31.0}},
	{"AR", orb.Point{-92.2, 34.8}},
	{"TN", orb.Point{-86.3, 35.8}},
	{"KY", orb.Point{-85.7, 37.8}},
	{"VA", orb.Point{-78.8, 37.5}},
	{"WV", orb.Point{-80.5, 38.9}},
	{"PA", orb.Point{-77.5, 41.0}},
	{"NY", orb.Point{-75.5, 43.0}},
	{"OH", orb.Point{-82.8, 40.2}},
	{"IN", orb.Point{-86.2, 40.0}},
	{"IL", orb.Point{-89.2, 40.0}},
	{"MI", orb.Point{-85.5, 44.3}},
	{"WI", orb.Point{-89.8, 44.5}},
	{"MN", orb.Point{-94.5, 46.0}},
	{"IA", orb.Point{-93.5, 42.0}},
	{"MO", orb.Point{-92.5, 38.5}},
}

var regionBounds = map[string]Box{
	"TX": {MinLat: 25.8, MaxLat: 36.5, MinLon: -106.7, MaxLon: -93.5},
	"OK": {MinLat: 33.6, MaxLat: 37.0, MinLon: -103.0, MaxLon: -94.4},
	"MT": {MinLat: 44.4, MaxLat: 49.0, MinLon: -116.1, MaxLon: -104.0},
	"WY": {MinLat: 41.0, MaxLat: 45.0, MinLon: -111.1, MaxLon: -104.1},
	"AZ": {MinLat: 31.3, MaxLat: 37.0, MinLon: -114.8, MaxLon: -109.0},
	"NM": {MinLat: 31.3, MaxLat: 37.0, MinLon: -109.1, MaxLon: -103.0},
	"CO": {MinLat: 37.0, MaxLat: 41.0, MinLon: -109.1, MaxLon: -102.0},
	"NV": {MinLat: 35.0, MaxLat: 42.0, MinLon: -120.0, MaxLon: -114.0},
	"SC": {MinLat: 32.0, MaxLat: 35.2, MinLon: -83.4, MaxLon: -78.5},
	"CA": {MinLat: 32.5, MaxLat: 42.0, MinLon: -124.5, MaxLon: -114.1},
}

// DefaultPriority is the visiting order used by the priority scope.
var DefaultPriority = []string{"TX", "OK", "MT", "WY", "AZ", "NM", "CO", "NV", "CA"}

// RegionBox returns the bounding box for a named sub-region. Names are
// case-insensitive.
func RegionBox(name string) (Box, error) {
	b, ok := regionBounds[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Box{}, eris.Wrapf(ErrUnknownRegion, "%q", name)
	}
	return b, nil
}

// Regions returns the names of all sub-regions with a bounding box, in
// centroid table order.
func Regions() []string {
	out := make([]string, 0, len(regionBounds))
	for _, c := range centroids {
		if _, ok := regionBounds[c.name]; ok {
			out = append(out, c.name)
		}
	}
	return out
}
