package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/places-collector/internal/grid"
)

// addScopeFlags registers the area selection flags shared by collect and grid.
func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().String("region", "", "collect a single sub-region, one of "+strings.Join(grid.Regions(), ", "))
	cmd.Flags().Bool("priority", false, "cover the full area, priority sub-regions first")
	cmd.Flags().StringSlice("priority-regions", nil, "priority order (default TX,OK,MT,WY,AZ,NM,CO,NV,CA)")
	cmd.Flags().Bool("full", false, "cover the full area in default order")
	cmd.Flags().Float64("spacing", 0, "grid spacing in km (default from config)")
	cmd.Flags().Int("max-points", 0, "stop after this many points (0 = no cap)")
}

// scopeFromFlags builds the scope selected on cmd. Exactly one of the mode
// flags must be set unless allowNone is true, in which case full is implied.
func scopeFromFlags(cmd *cobra.Command, defaultSpacing float64, extraModes int, allowNone bool) (grid.Scope, error) {
	region, _ := cmd.Flags().GetString("region")
	priority, _ := cmd.Flags().GetBool("priority")
	order, _ := cmd.Flags().GetStringSlice("priority-regions")
	full, _ := cmd.Flags().GetBool("full")
	spacing, _ := cmd.Flags().GetFloat64("spacing")
	maxPoints, _ := cmd.Flags().GetInt("max-points")

	region = strings.TrimSpace(region)
	modes := extraModes
	for _, set := range []bool{region != "", priority, full} {
		if set {
			modes++
		}
	}
	switch {
	case modes > 1:
		return grid.Scope{}, eris.New("choose only one of --region, --priority, --full, --resume")
	case modes == 0 && !allowNone:
		return grid.Scope{}, eris.New("one of --region, --priority, --full, --resume is required")
	}
	if maxPoints < 0 {
		return grid.Scope{}, eris.New("--max-points must be >= 0")
	}
	if spacing <= 0 {
		spacing = defaultSpacing
	}

	scope := grid.Scope{Mode: grid.ModeFull, SpacingKM: spacing, MaxPoints: maxPoints}
	switch {
	case region != "":
		if _, err := grid.RegionBox(region); err != nil {
			return grid.Scope{}, err
		}
		scope.Mode = grid.ModeRegion
		scope.Region = strings.ToUpper(region)
	case priority:
		scope.Mode = grid.ModePriority
		for _, r := range order {
			if _, err := grid.RegionBox(r); err != nil {
				return grid.Scope{}, err
			}
			scope.Priority = append(scope.Priority, strings.ToUpper(strings.TrimSpace(r)))
		}
	}
	return scope, nil
}
