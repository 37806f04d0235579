package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modhearth/modhearth/internal/core"
	"github.com/modhearth/modhearth/internal/core/registry"
	"github.com/modhearth/modhearth/internal/observability"
	"github.com/modhearth/modhearth/internal/output"
)

var (
	searchCategory int64
	searchSort     string
	searchOrder    string
	searchPage     int
	searchPageSize int
	searchFormat   string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the mod registry",
	Long: `Search the mod registry, serving cached results when fresh.

When the primary query yields nothing, alternate strategies run
automatically (category-only, popularity, simplified text) before an
empty result is reported.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		format, err := output.ParseFormat(searchFormat)
		if err != nil {
			return err
		}

		sort, err := core.ParseSortField(searchSort)
		if err != nil {
			return err
		}
		order, err := core.ParseSortOrder(searchOrder)
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

		result, err := client.SearchMods(ctx, registry.SearchQuery{
			Text:       strings.Join(args, " "),
			CategoryID: searchCategory,
			Sort:       sort,
			Order:      order,
			Page:       searchPage,
			PageSize:   searchPageSize,
		})
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatSearch(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func init() {
	searchCmd.Flags().Int64Var(&searchCategory, "category", 0, "restrict results to a category id")
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "sort field: popularity, name, size, updated, downloads")
	searchCmd.Flags().StringVar(&searchOrder, "order", "", "sort order: asc or desc")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "result page (1-based)")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 20, "results per page")
	searchCmd.Flags().StringVarP(&searchFormat, "output", "o", "table", "output format: table or json")

	rootCmd.AddCommand(searchCmd)
}
