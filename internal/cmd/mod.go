package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/modhearth/modhearth/internal/observability"
	"github.com/modhearth/modhearth/internal/output"
)

var modFormat string

var modCmd = &cobra.Command{
	Use:   "mod <id>",
	Short: "Fetch a single mod record",
	Long:  `Fetch a single mod record by id, serving the cached copy when fresh.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id < 1 {
			return fmt.Errorf("invalid mod id: %s", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		format, err := output.ParseFormat(modFormat)
		if err != nil {
			return err
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

		mod, err := client.GetMod(ctx, id)
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatMod(mod)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func init() {
	modCmd.Flags().StringVarP(&modFormat, "output", "o", "table", "output format: table or json")

	rootCmd.AddCommand(modCmd)
}
