package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/modhearth/modhearth/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath()
		if path == "" {
			return fmt.Errorf("could not resolve config directory")
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(configDocument(cfg))
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}

		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(configDocument(cfg))
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}

		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// configDocument renders the typed config as the yaml layout the loader
// reads back. The API key is elided; it belongs in the environment.
func configDocument(cfg *config.Config) map[string]any {
	categories := make([]map[string]any, 0, len(cfg.Warming.Categories))
	for _, category := range cfg.Warming.Categories {
		categories = append(categories, map[string]any{
			"key":      category.Key,
			"id":       category.ID,
			"priority": category.Priority,
		})
	}

	return map[string]any{
		"server": map[string]any{
			"host":             cfg.Server.Host,
			"port":             cfg.Server.Port,
			"shutdown_timeout": cfg.Server.ShutdownTimeout.String(),
		},
		"store": map[string]any{
			"driver": cfg.Store.Driver,
			"path":   cfg.Store.Path,
		},
		"registry": map[string]any{
			"base_url":          cfg.Registry.BaseURL,
			"client_id":         cfg.Registry.ClientID,
			"game_id":           cfg.Registry.GameID,
			"timeout":           cfg.Registry.Timeout.String(),
			"max_retries":       cfg.Registry.MaxRetries,
			"backoff_base":      cfg.Registry.BackoffBase.String(),
			"max_concurrent":    cfg.Registry.MaxConcurrent,
			"bucket_capacity":   cfg.Registry.BucketCapacity,
			"refill_per_second": cfg.Registry.RefillPerSecond,
		},
		"cache": map[string]any{
			"search_ttl":   cfg.Cache.SearchTTL.String(),
			"mod_ttl":      cfg.Cache.ModTTL.String(),
			"category_ttl": cfg.Cache.CategoryTTL.String(),
		},
		"warming": map[string]any{
			"enabled":            cfg.Warming.Enabled,
			"sweep_interval":     cfg.Warming.SweepInterval.String(),
			"analytics_interval": cfg.Warming.AnalyticsInterval.String(),
			"top_n":              cfg.Warming.TopN,
			"item_delay":         cfg.Warming.ItemDelay.String(),
			"categories":         categories,
		},
		"fetcher": map[string]any{
			"enabled":    cfg.Fetcher.Enabled,
			"interval":   cfg.Fetcher.Interval.String(),
			"batch_size": cfg.Fetcher.BatchSize,
		},
		"logging": map[string]any{
			"level": cfg.Logging.Level,
		},
	}
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
