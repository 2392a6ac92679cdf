package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/places-collector/internal/cost"
	"github.com/sells-group/places-collector/internal/grid"
	"github.com/sells-group/places-collector/internal/model"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Preview the search grid for a scope",
	Long:  "Generates the grid for a scope and prints point counts per region, estimated coverage and API cost. Optionally writes the points as GeoJSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("grid"); err != nil {
			return err
		}
		scope, err := scopeFromFlags(cmd, cfg.Collect.SpacingKM, 0, true)
		if err != nil {
			return err
		}
		radiusM, _ := cmd.Flags().GetInt("radius")
		if radiusM <= 0 {
			radiusM = cfg.Collect.SearchRadiusM
		}
		geojsonPath, _ := cmd.Flags().GetString("geojson")

		points, err := scope.Points()
		if err != nil {
			return err
		}
		cov := grid.EstimateCoverage(points, float64(radiusM)/1000)
		est := cost.NewCalculator(ratesFromConfig(cfg.Pricing)).
			Estimate(len(points), len(cfg.Collect.Queries), model.SourcePriority)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Scope\t%s\n", scope)
		fmt.Fprintf(w, "Spacing\t%.1f km\n", scope.SpacingKM)
		fmt.Fprintf(w, "Grid points\t%d\n", cov.TotalPoints)
		formatRegions(w, cov.ByRegion)
		fmt.Fprintf(w, "Coverage (upper bound)\t%d km²\n", cov.EstimatedAreaKM2)
		fmt.Fprintf(w, "API calls (all providers)\t%d\n", est.TotalCalls)
		fmt.Fprintf(w, "Estimated cost\t$%.2f\n", est.TotalCost)
		if err := w.Flush(); err != nil {
			return eris.Wrap(err, "grid: flush output")
		}

		if geojsonPath == "" {
			return nil
		}
		f, err := os.Create(geojsonPath) //nolint:gosec
		if err != nil {
			return eris.Wrapf(err, "grid: create %s", geojsonPath)
		}
		if err := grid.WriteGeoJSON(f, points); err != nil {
			f.Close() //nolint:errcheck,gosec
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "grid: close %s", geojsonPath)
		}
		zap.L().Info("wrote grid geojson", zap.String("path", geojsonPath), zap.Int("points", len(points)))
		return nil
	},
}

func init() {
	addScopeFlags(gridCmd)
	gridCmd.Flags().Int("radius", 0, "search radius in meters for coverage (default from config)")
	gridCmd.Flags().String("geojson", "", "write the grid points to this GeoJSON file")
	rootCmd.AddCommand(gridCmd)
}
