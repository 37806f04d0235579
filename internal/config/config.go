package config

import "time"

// Config is the complete application configuration, decoded from the
// layered viper state (defaults, config file, environment).
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Registry RegistryConfig `mapstructure:"registry"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Warming  WarmingConfig  `mapstructure:"warming"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// RegistryConfig configures the upstream mod-registry client.
type RegistryConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	ClientID string `mapstructure:"client_id"`
	GameID   int64  `mapstructure:"game_id"`

	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`

	MaxConcurrent   int     `mapstructure:"max_concurrent"`
	BucketCapacity  float64 `mapstructure:"bucket_capacity"`
	RefillPerSecond float64 `mapstructure:"refill_per_second"`
}

// CacheConfig contains result cache TTL configuration.
type CacheConfig struct {
	SearchTTL   time.Duration `mapstructure:"search_ttl"`
	ModTTL      time.Duration `mapstructure:"mod_ttl"`
	CategoryTTL time.Duration `mapstructure:"category_ttl"`
}

// WarmingConfig configures the cache warming scheduler.
type WarmingConfig struct {
	Enabled           bool                    `mapstructure:"enabled"`
	SweepInterval     time.Duration           `mapstructure:"sweep_interval"`
	AnalyticsInterval time.Duration           `mapstructure:"analytics_interval"`
	TopN              int                     `mapstructure:"top_n"`
	ItemDelay         time.Duration           `mapstructure:"item_delay"`
	Categories        []WarmingCategoryConfig `mapstructure:"categories"`
}

// WarmingCategoryConfig seeds one category into the warming schedule.
type WarmingCategoryConfig struct {
	Key      string  `mapstructure:"key"`
	ID       int64   `mapstructure:"id"`
	Priority float64 `mapstructure:"priority"`
}

// FetcherConfig configures the background record fetcher.
type FetcherConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`
}
