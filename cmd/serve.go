package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/places-collector/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve collection progress and the entity catalog over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
			cfg.Collect.OutputDir = dir
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		zap.L().Info("starting status server",
			zap.String("addr", addr),
			zap.String("output_dir", cfg.Collect.OutputDir),
		)
		return server.New(cfg.Collect.OutputDir).Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default from config)")
	serveCmd.Flags().String("output-dir", "", "output directory of the run (default from config)")
	rootCmd.AddCommand(serveCmd)
}
