// Package cost estimates provider call volume and spend for a collection run.
package cost

import (
	"sort"

	"github.com/sells-group/places-collector/internal/model"
)

// Rates holds the per-call price for each provider source.
type Rates struct {
	PerCall map[string]float64 `yaml:"per_call" mapstructure:"per_call"`
}

// DefaultRates returns list prices: Places Text Search is metered, Yelp
// Fusion and Overpass are free at this volume.
func DefaultRates() Rates {
	return Rates{PerCall: map[string]float64{
		model.SourceGoogle: 0.032,
		model.SourceYelp:   0,
		model.SourceOSM:    0,
	}}
}

// Calculator computes costs for provider usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	if rates.PerCall == nil {
		rates.PerCall = map[string]float64{}
	}
	return &Calculator{rates: rates}
}

// Call returns the price of one call to source; unknown sources are free.
func (c *Calculator) Call(source string) float64 {
	return c.rates.PerCall[source]
}

// Line is the estimate for one provider.
type Line struct {
	Source string  `json:"source"`
	Calls  int     `json:"calls"`
	Cost   float64 `json:"cost_usd"`
}

// Estimate is the projected volume and spend of a run.
type Estimate struct {
	Points     int     `json:"points"`
	Queries    int     `json:"queries"`
	Lines      []Line  `json:"providers"`
	TotalCalls int     `json:"total_calls"`
	TotalCost  float64 `json:"total_cost_usd"`
}

// Estimate projects one call per point, per query, per enabled source.
// Lines are sorted by source name.
func (c *Calculator) Estimate(points, queries int, sources []string) Estimate {
	est := Estimate{Points: points, Queries: queries}
	perSource := points * queries

	sorted := append([]string(nil), sources...)
	sort.Strings(sorted)
	for _, src := range sorted {
		line := Line{Source: src, Calls: perSource, Cost: float64(perSource) * c.Call(src)}
		est.Lines = append(est.Lines, line)
		est.TotalCalls += line.Calls
		est.TotalCost += line.Cost
	}
	return est
}
