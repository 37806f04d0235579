package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modhearth/modhearth/internal/observability"
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Run one cache warming sweep and exit",
	Long: `Run a single warming sweep over the configured categories.

Categories are warmed in dynamic-priority order, highest first, capped
at the configured top-N per sweep. Useful from cron when the long-lived
server is not running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if len(cfg.Warming.Categories) == 0 {
			return fmt.Errorf("no warming categories configured")
		}

		ctx := cmd.Context()
		db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup on exit

		client, err := buildClient(cfg, db, observability.CLILogger)
		if err != nil {
			return err
		}

		warmer := buildWarmer(cfg, client, db, observability.CLILogger)
		warmer.LoadSchedules(ctx)
		warmed := warmer.Sweep(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "warmed %d categories\n", warmed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(warmCmd)
}
