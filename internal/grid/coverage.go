package grid

import "math"

// UnknownRegion labels points with no region in coverage histograms.
const UnknownRegion = "Unknown"

// Coverage summarizes a point sequence. EstimatedAreaKM2 ignores disk
// overlap and is an upper bound on the covered area.
type Coverage struct {
	TotalPoints      int            `json:"total_points"`
	ByRegion         map[string]int `json:"by_region"`
	EstimatedAreaKM2 int64          `json:"estimated_area_km2"`
	SearchRadiusKM   float64        `json:"search_radius_km"`
}

// EstimateCoverage counts points per region and sums one disk of radiusKM
// per point.
func EstimateCoverage(points []Point, radiusKM float64) Coverage {
	cov := Coverage{
		TotalPoints:    len(points),
		ByRegion:       make(map[string]int),
		SearchRadiusKM: radiusKM,
	}
	for _, p := range points {
		region := p.Region
		if region == "" {
			region = UnknownRegion
		}
		cov.ByRegion[region]++
	}
	cov.EstimatedAreaKM2 = int64(math.Round(float64(len(points)) * math.Pi * radiusKM * radiusKM))
	return cov
}
