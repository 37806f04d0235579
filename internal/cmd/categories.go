package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modhearth/modhearth/internal/observability"
	"github.com/modhearth/modhearth/internal/output"
)

var categoriesFormat string

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the registry's mod categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		format, err := output.ParseFormat(categoriesFormat)
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

		categories, err := client.GetCategories(ctx)
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatCategories(categories)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func init() {
	categoriesCmd.Flags().StringVarP(&categoriesFormat, "output", "o", "table", "output format: table or json")

	rootCmd.AddCommand(categoriesCmd)
}
