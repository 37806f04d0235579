package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/modhearth/modhearth/internal/config"
	"github.com/modhearth/modhearth/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modhearth",
	Short: "Mod-registry access layer for game-server dashboards",
	Long: `ModHearth fronts an external mod registry with caching, request
coordination, and rate limiting so dashboard traffic never overruns
upstream quotas.

Use the subcommands to perform specific operations.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/modhearth/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	observability.InitCLILogger("modhearth", verbose)

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if dir := config.DefaultConfigDir(); dir != "" {
			viper.AddConfigPath(dir)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MODHEARTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			observability.CLILogger.Warn("Failed to read config file", zap.Error(err))
		}
	} else if verbose {
		observability.CLILogger.Debug("Using config file", zap.String("file", viper.ConfigFileUsed()))
	}
}

func setDefaults() {
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8480)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)

	viper.SetDefault("store.driver", "libsql")

	viper.SetDefault("registry.base_url", "https://api.curseforge.com")
	viper.SetDefault("registry.game_id", 432)
	viper.SetDefault("registry.timeout", 30*time.Second)
	viper.SetDefault("registry.max_retries", 3)
	viper.SetDefault("registry.backoff_base", time.Second)
	viper.SetDefault("registry.max_concurrent", 3)
	viper.SetDefault("registry.bucket_capacity", 10)
	viper.SetDefault("registry.refill_per_second", 1)

	viper.SetDefault("cache.search_ttl", 15*time.Minute)
	viper.SetDefault("cache.mod_ttl", time.Hour)
	viper.SetDefault("cache.category_ttl", 24*time.Hour)

	viper.SetDefault("warming.enabled", false)
	viper.SetDefault("warming.sweep_interval", 5*time.Minute)
	viper.SetDefault("warming.analytics_interval", 15*time.Minute)
	viper.SetDefault("warming.top_n", 5)
	viper.SetDefault("warming.item_delay", 500*time.Millisecond)

	viper.SetDefault("fetcher.enabled", false)
	viper.SetDefault("fetcher.interval", 10*time.Minute)
	viper.SetDefault("fetcher.batch_size", 10)

	viper.SetDefault("logging.level", "info")
}

// loadConfig decodes the merged viper state into the typed config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
