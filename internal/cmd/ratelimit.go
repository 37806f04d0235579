package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modhearth/modhearth/internal/output"
)

var rateLimitFormat string

var rateLimitCmd = &cobra.Command{
	Use:   "ratelimit",
	Short: "Show the latest upstream rate-limit snapshots",
	Long: `Show the advisory rate-limit snapshots observed on recent registry
responses, one per endpoint. Snapshots are informational; the local
token bucket is what actually paces requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		format, err := output.ParseFormat(rateLimitFormat)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup on exit

		statuses, err := db.ListRateLimitStatuses(ctx)
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatRateLimits(statuses)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func init() {
	rateLimitCmd.Flags().StringVarP(&rateLimitFormat, "output", "o", "table", "output format: table or json")

	rootCmd.AddCommand(rateLimitCmd)
}
