package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/places-collector/internal/collector"
	"github.com/sells-group/places-collector/internal/config"
	"github.com/sells-group/places-collector/internal/export"
	"github.com/sells-group/places-collector/internal/model"
	"github.com/sells-group/places-collector/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the collected catalog to CSV, XLSX, SQLite or Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		dbURL, _ := cmd.Flags().GetString("database-url")
		if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
			cfg.Collect.OutputDir = dir
		}
		if format != "" {
			cfg.Store.Driver = format
		}
		if dbURL != "" {
			cfg.Store.DatabaseURL = dbURL
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		ckpt := collector.NewCheckpoint(cfg.Collect.OutputDir)
		p, err := ckpt.LoadProgress()
		if err != nil {
			return err
		}
		snap, err := ckpt.LoadSnapshot()
		if err != nil {
			return err
		}

		log := zap.L().With(zap.String("component", "export"), zap.String("format", cfg.Store.Driver))
		switch f := export.Format(cfg.Store.Driver); f {
		case export.FormatCSV, export.FormatXLSX:
			if output == "" {
				output = filepath.Join(ckpt.Dir(), "entities."+string(f))
			}
			if err := export.WriteFile(output, f, snap.Entities); err != nil {
				return err
			}
			log.Info("exported catalog", zap.String("path", output), zap.Int("entities", len(snap.Entities)))
		default:
			switch {
			case output != "":
				cfg.Store.SQLitePath = output
			case cfg.Store.SQLitePath == "":
				cfg.Store.SQLitePath = filepath.Join(ckpt.Dir(), "entities.db")
			}
			n, err := exportToStore(cmd.Context(), cfg.Store, p, snap.Entities)
			if err != nil {
				return err
			}
			log.Info("exported catalog", zap.Int64("rows", n), zap.String("run_id", p.RunID))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entities\n", len(snap.Entities))
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.String("format", "", "csv, xlsx, sqlite or postgres (default from store.driver)")
	f.String("output", "", "output file for csv, xlsx or sqlite")
	f.String("database-url", "", "Postgres connection string (default from store.database_url)")
	f.String("output-dir", "", "output directory of the run (default from config)")
	rootCmd.AddCommand(exportCmd)
}

// runFromProgress converts a resume cursor into a run ledger row.
func runFromProgress(p collector.Progress) store.Run {
	return store.Run{
		ID:              p.RunID,
		Scope:           p.Scope.String(),
		StartedAt:       p.StartedAt,
		LastUpdated:     p.LastUpdated,
		TotalPoints:     p.TotalPoints,
		CompletedPoints: p.CompletedPoints,
		EntitiesFound:   p.EntitiesFound,
		Errors:          p.Errors,
	}
}

func exportToStore(ctx context.Context, sc config.StoreConfig, p collector.Progress, entities []model.Entity) (int64, error) {
	st, err := store.Open(ctx, sc)
	if err != nil {
		return 0, err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return 0, eris.Wrap(err, "export: migrate")
	}
	if err := st.SaveRun(ctx, runFromProgress(p)); err != nil {
		return 0, err
	}
	return st.UpsertEntities(ctx, p.RunID, entities)
}
