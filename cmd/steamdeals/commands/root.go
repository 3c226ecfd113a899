package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"steamdeals-backend/lib/telemetry"
	"steamdeals-backend/services/storefront"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	service    storefront.Service
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logs, request dumps under .dev/resty and tracing.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file to read.")
}

var rootCmd = &cobra.Command{
	Use:   "steamdeals",
	Short: "steamdeals lists cheap and well rated games on Steam.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)
		if verbose {
			err := telemetry.SetupFromEnv(cmd.Context(), "steamdeals")
			if err != nil {
				slog.Warn("failed to setup telemetry", "err", err.Error())
			}
		}

		config, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		service = newService(config, verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := telemetry.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err.Error())
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
