// Package grid tiles a latitude/longitude area into an ordered sequence of
// search points.
package grid

import (
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/rotisserie/eris"
)

// KMPerDegreeLat is the flat-Earth conversion used for both axes.
const KMPerDegreeLat = 111.0

// Precision is the number of decimal places points are rounded to.
const Precision = 4

const minCos = 1e-6

// Point is one search coordinate. Two points are the same point when their
// rounded coordinates match; see Key.
type Point struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Region string  `json:"region,omitempty"`
}

// Key is the identity of a point at Precision decimal places.
type Key struct {
	Lat int64
	Lon int64
}

// Key returns the rounded-coordinate identity of p.
func (p Point) Key() Key {
	scale := math.Pow10(Precision)
	return Key{Lat: int64(math.Round(p.Lat * scale)), Lon: int64(math.Round(p.Lon * scale))}
}

// Equal reports whether p and o share a rounded-coordinate identity.
func (p Point) Equal(o Point) bool {
	return p.Key() == o.Key()
}

// Orb returns p as an orb.Point (X is longitude).
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Generate steps over box in latitude-major, longitude-minor order. When
// label is empty each point is labeled with its nearest sub-region centroid.
func Generate(spacingKM float64, box Box, label string) ([]Point, error) {
	if spacingKM <= 0 || math.IsNaN(spacingKM) || math.IsInf(spacingKM, 0) {
		return nil, eris.Errorf("grid: spacing must be positive, got %v", spacingKM)
	}
	if box.MinLat > box.MaxLat || box.MinLon > box.MaxLon {
		return nil, eris.Errorf("grid: inverted bounds %+v", box)
	}

	latStep := spacingKM / KMPerDegreeLat
	var points []Point
	for i := 0; ; i++ {
		lat := box.MinLat + float64(i)*latStep
		if lat > box.MaxLat {
			break
		}
		lonStep := spacingKM / (KMPerDegreeLat * math.Max(math.Cos(lat*math.Pi/180), minCos))
		for j := 0; ; j++ {
			lon := box.MinLon + float64(j)*lonStep
			if lon > box.MaxLon {
				break
			}
			region := label
			if region == "" {
				region = NearestRegion(lat, lon)
			}
			points = append(points, Point{Lat: round(lat), Lon: round(lon), Region: region})
		}
	}
	return points, nil
}

// Full generates the grid over the whole area.
func Full(spacingKM float64) ([]Point, error) {
	return Generate(spacingKM, Area, "")
}

// ForRegion generates the grid over one sub-region's box, labeling every
// point with that region.
func ForRegion(spacingKM float64, name string) ([]Point, error) {
	box, err := RegionBox(name)
	if err != nil {
		return nil, err
	}
	return Generate(spacingKM, box, strings.ToUpper(strings.TrimSpace(name)))
}

// Prioritized returns the full-area grid reordered so that points inside the
// listed sub-regions come first, in list order. A point is claimed by the
// first listed region whose box contains it and relabeled with that region.
// Remaining points follow in default order. Output is a permutation of Full.
func Prioritized(spacingKM float64, priority []string) ([]Point, error) {
	boxes := make([]Box, len(priority))
	names := make([]string, len(priority))
	for i, name := range priority {
		b, err := RegionBox(name)
		if err != nil {
			return nil, err
		}
		boxes[i] = b
		names[i] = strings.ToUpper(strings.TrimSpace(name))
	}

	full, err := Full(spacingKM)
	if err != nil {
		return nil, err
	}

	buckets := make([][]Point, len(priority))
	var rest []Point
	seen := make(map[Key]struct{}, len(full))
	for _, p := range full {
		if _, dup := seen[p.Key()]; dup {
			continue
		}
		seen[p.Key()] = struct{}{}

		claimed := false
		for i, b := range boxes {
			if b.Contains(p.Lat, p.Lon) {
				p.Region = names[i]
				buckets[i] = append(buckets[i], p)
				claimed = true
				break
			}
		}
		if !claimed {
			rest = append(rest, p)
		}
	}

	out := make([]Point, 0, len(full))
	for _, b := range buckets {
		out = append(out, b...)
	}
	return append(out, rest...), nil
}

// NearestRegion returns the sub-region whose centroid is closest to
// (lat, lon) by haversine distance.
func NearestRegion(lat, lon float64) string {
	pt := orb.Point{lon, lat}
	best := ""
	bestDist := math.Inf(1)
	for _, c := range centroids {
		if d := geo.DistanceHaversine(pt, c.pt); d < bestDist {
			bestDist = d
			best = c.name
		}
	}
	return best
}

func round(v float64) float64 {
	scale := math.Pow10(Precision)
	return math.Round(v*scale) / scale
}
