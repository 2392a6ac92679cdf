package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/places-collector/internal/collector"
	"github.com/sells-group/places-collector/internal/config"
	"github.com/sells-group/places-collector/internal/cost"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Walk the search grid and collect places from every enabled provider",
	Long: "Generates the grid for the selected scope, queries each enabled provider for every query term at every point, " +
		"deduplicates the results and checkpoints progress so an interrupted run can be resumed with --resume.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		resume, _ := cmd.Flags().GetBool("resume")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		queriesFile, _ := cmd.Flags().GetString("queries-file")
		noGoogle, _ := cmd.Flags().GetBool("no-google")
		useYelp, _ := cmd.Flags().GetBool("use-yelp")
		noOSM, _ := cmd.Flags().GetBool("no-osm")

		if outputDir != "" {
			cfg.Collect.OutputDir = outputDir
		}
		if err := cfg.Validate("collect"); err != nil {
			return err
		}

		extra := 0
		if resume {
			extra = 1
		}
		scope, err := scopeFromFlags(cmd, cfg.Collect.SpacingKM, extra, false)
		if err != nil {
			return err
		}
		if resume && dryRun {
			return eris.New("--dry-run cannot be combined with --resume")
		}

		queries := cfg.Collect.Queries
		if queriesFile != "" {
			if queries, err = collector.LoadQueries(queriesFile); err != nil {
				return err
			}
		}

		ckpt := collector.NewCheckpoint(cfg.Collect.OutputDir)
		if !dryRun {
			if err := os.MkdirAll(ckpt.Dir(), 0o755); err != nil {
				return eris.Wrap(err, "collect: create output dir")
			}
			closeLog, err := config.AttachLogFile(cfg.Log, ckpt.LogPath())
			if err != nil {
				return err
			}
			defer closeLog() //nolint:errcheck
		}

		providers, delays := buildProviders(cfg.Providers, providerToggles{noGoogle: noGoogle, useYelp: useYelp, noOSM: noOSM})
		if len(providers) == 0 {
			return eris.New("collect: no providers enabled")
		}

		c := collector.New(providers, collector.Options{
			Scope:           scope,
			Resume:          resume,
			DryRun:          dryRun,
			Queries:         queries,
			RadiusM:         cfg.Collect.SearchRadiusM,
			CheckpointEvery: cfg.Collect.CheckpointEvery,
			Threshold:       cfg.Collect.SimilarityThreshold,
			OutputDir:       cfg.Collect.OutputDir,
			Delays:          delays,
		}, cost.NewCalculator(ratesFromConfig(cfg.Pricing)))

		start := time.Now()
		summary, err := c.Run(ctx)
		if summary != nil {
			formatSummary(cmd.OutOrStdout(), summary, time.Since(start))
		}
		if err != nil {
			zap.L().Error("collection stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	addScopeFlags(collectCmd)
	f := collectCmd.Flags()
	f.Bool("resume", false, "resume the run checkpointed in the output directory")
	f.Bool("dry-run", false, "print grid coverage and cost estimates without querying providers")
	f.String("output-dir", "", "directory for progress, entities and log files (default from config)")
	f.String("queries-file", "", "YAML file with a queries list overriding the configured terms")
	f.Bool("no-google", false, "disable Google Places")
	f.Bool("use-yelp", false, "enable Yelp Fusion")
	f.Bool("no-osm", false, "disable OpenStreetMap")
	rootCmd.AddCommand(collectCmd)
}

func formatSummary(w io.Writer, s *collector.Summary, elapsed time.Duration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush() //nolint:errcheck

	if s.Estimate != nil {
		fmt.Fprintf(tw, "Dry run\t%s\n", s.Scope)
		fmt.Fprintf(tw, "Grid points\t%d\n", s.TotalPoints)
		fmt.Fprintf(tw, "Search radius\t%.0f km\n", s.Coverage.SearchRadiusKM)
		fmt.Fprintf(tw, "Coverage (upper bound)\t%d km²\n", s.Coverage.EstimatedAreaKM2)
		formatRegions(tw, s.Coverage.ByRegion)
		fmt.Fprintf(tw, "Queries per point\t%d\n", s.Estimate.Queries)
		for _, l := range s.Estimate.Lines {
			fmt.Fprintf(tw, "  %s\t%d calls\t$%.2f\n", l.Source, l.Calls, l.Cost)
		}
		fmt.Fprintf(tw, "Total API calls\t%d\n", s.Estimate.TotalCalls)
		fmt.Fprintf(tw, "Estimated cost\t$%.2f\n", s.Estimate.TotalCost)
		return
	}

	fmt.Fprintf(tw, "Run\t%s (%s)\n", s.RunID, s.State)
	fmt.Fprintf(tw, "Scope\t%s\n", s.Scope)
	fmt.Fprintf(tw, "Points processed\t%d (from index %d of %d)\n", s.ProcessedPoints, s.StartIndex, s.TotalPoints)
	fmt.Fprintf(tw, "Unique entities\t%d (%d new)\n", s.Entities, s.NewEntities)
	fmt.Fprintf(tw, "Multi-source entities\t%d\n", s.Stats.MultiSource)
	sources := make([]string, 0, len(s.Stats.BySource))
	for src := range s.Stats.BySource {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		fmt.Fprintf(tw, "  %s\t%d\n", src, s.Stats.BySource[src])
	}
	fmt.Fprintf(tw, "Errors\t%d\n", s.Errors)
	for _, d := range s.Disabled {
		fmt.Fprintf(tw, "Disabled\t%s (missing credential)\n", d)
	}
	fmt.Fprintf(tw, "Elapsed\t%s\n", elapsed.Round(time.Second))
	fmt.Fprintf(tw, "Entities file\t%s\n", s.EntitiesPath)
	fmt.Fprintf(tw, "Progress file\t%s\n", s.ProgressPath)
}

func formatRegions(w io.Writer, byRegion map[string]int) {
	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	for _, r := range regions {
		fmt.Fprintf(w, "  %s\t%d\n", r, byRegion[r])
	}
}
