package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/places-collector/internal/collector"
	"github.com/sells-group/places-collector/internal/dedup"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the progress of the run in an output directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
			cfg.Collect.OutputDir = dir
		}
		if err := cfg.Validate("status"); err != nil {
			return err
		}

		ckpt := collector.NewCheckpoint(cfg.Collect.OutputDir)
		p, err := ckpt.LoadProgress()
		if eris.Is(err, collector.ErrNoCheckpoint) {
			fmt.Fprintf(cmd.OutOrStdout(), "No collection found in %s\n", ckpt.Dir())
			return nil
		}
		if err != nil {
			return err
		}
		snap, err := ckpt.LoadSnapshot()
		if err != nil {
			return err
		}
		stats := dedup.ComputeStats(snap.Entities)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Run\t%s\n", p.RunID)
		fmt.Fprintf(w, "Scope\t%s\n", p.Scope)
		fmt.Fprintf(w, "Started\t%s\n", p.StartedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "Last updated\t%s\n", p.LastUpdated.Format(time.RFC3339))
		fmt.Fprintf(w, "Progress\t%d/%d points (%.1f%%)\n", p.CompletedPoints, p.TotalPoints, p.Percent())
		fmt.Fprintf(w, "Errors\t%d\n", p.Errors)
		fmt.Fprintf(w, "Unique entities\t%d\n", stats.TotalUnique)
		fmt.Fprintf(w, "Multi-source entities\t%d\n", stats.MultiSource)
		sources := make([]string, 0, len(stats.BySource))
		for src := range stats.BySource {
			sources = append(sources, src)
		}
		sort.Strings(sources)
		for _, src := range sources {
			fmt.Fprintf(w, "  %s\t%d\n", src, stats.BySource[src])
		}
		if p.Done() {
			fmt.Fprintln(w, "State\tcompleted")
		} else {
			fmt.Fprintf(w, "State\tresumable (next point %d)\n", p.CurrentIndex)
		}
		return eris.Wrap(w.Flush(), "status: flush output")
	},
}

func init() {
	statusCmd.Flags().String("output-dir", "", "output directory of the run (default from config)")
	rootCmd.AddCommand(statusCmd)
}
