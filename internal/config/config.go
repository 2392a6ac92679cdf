// Package config loads collector configuration and builds the global logger.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultQueries are the search terms issued at every grid point.
var DefaultQueries = []string{
	"western wear store",
	"cowboy boots",
	"cowboy hats",
	"tack shop",
	"western clothing",
	"Boot Barn",
	"Cavender's",
}

// Config holds the full application configuration.
type Config struct {
	Collect   CollectConfig   `yaml:"collect" mapstructure:"collect"`
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// CollectConfig configures grid generation and the collection loop.
type CollectConfig struct {
	SpacingKM           float64  `yaml:"spacing_km" mapstructure:"spacing_km"`
	SearchRadiusM       int      `yaml:"search_radius_m" mapstructure:"search_radius_m"`
	CheckpointEvery     int      `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
	SimilarityThreshold float64  `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	OutputDir           string   `yaml:"output_dir" mapstructure:"output_dir"`
	Queries             []string `yaml:"queries" mapstructure:"queries"`
}

// ProvidersConfig configures each place-data provider.
type ProvidersConfig struct {
	KeysFile string         `yaml:"keys_file" mapstructure:"keys_file"`
	Google   ProviderConfig `yaml:"google" mapstructure:"google"`
	Yelp     ProviderConfig `yaml:"yelp" mapstructure:"yelp"`
	OSM      ProviderConfig `yaml:"osm" mapstructure:"osm"`
}

// ProviderConfig configures one provider adapter.
type ProviderConfig struct {
	Enabled     bool        `yaml:"enabled" mapstructure:"enabled"`
	DelayMs     int         `yaml:"delay_ms" mapstructure:"delay_ms"`
	BaseURL     string      `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRadiusM  int         `yaml:"max_radius_m" mapstructure:"max_radius_m"`
	Retry       RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig configures backoff for providers that retry.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
}

// PricingConfig holds per-call prices used by dry-run estimates.
type PricingConfig struct {
	GooglePerCall float64 `yaml:"google_per_call" mapstructure:"google_per_call"`
	YelpPerCall   float64 `yaml:"yelp_per_call" mapstructure:"yelp_per_call"`
	OSMPerCall    float64 `yaml:"osm_per_call" mapstructure:"osm_per_call"`
}

// StoreConfig configures the catalog export sink.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// ServerConfig configures the status API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COLLECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("collect.spacing_km", 70.0)
	v.SetDefault("collect.search_radius_m", 50000)
	v.SetDefault("collect.checkpoint_every", 10)
	v.SetDefault("collect.similarity_threshold", 0.85)
	v.SetDefault("collect.output_dir", "data/collected")
	v.SetDefault("collect.queries", DefaultQueries)
	v.SetDefault("providers.keys_file", "config/api_keys.env")
	v.SetDefault("providers.google.enabled", true)
	v.SetDefault("providers.google.delay_ms", 500)
	v.SetDefault("providers.google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("providers.google.timeout_secs", 30)
	v.SetDefault("providers.yelp.enabled", false)
	v.SetDefault("providers.yelp.delay_ms", 500)
	v.SetDefault("providers.yelp.base_url", "https://api.yelp.com/v3")
	v.SetDefault("providers.yelp.timeout_secs", 30)
	v.SetDefault("providers.yelp.max_radius_m", 40000)
	v.SetDefault("providers.osm.enabled", true)
	v.SetDefault("providers.osm.delay_ms", 0)
	v.SetDefault("providers.osm.base_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("providers.osm.timeout_secs", 180)
	v.SetDefault("providers.osm.retry.max_attempts", 3)
	v.SetDefault("providers.osm.retry.initial_backoff_ms", 10000)
	v.SetDefault("providers.osm.retry.max_backoff_ms", 120000)
	v.SetDefault("providers.osm.retry.multiplier", 2.0)
	v.SetDefault("pricing.google_per_call", 0.032)
	v.SetDefault("pricing.yelp_per_call", 0.0)
	v.SetDefault("pricing.osm_per_call", 0.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is one of "collect",
// "grid", "status", "export" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "collect":
		errs = append(errs, c.validateGrid()...)
		if c.Collect.CheckpointEvery < 1 {
			errs = append(errs, "collect.checkpoint_every must be >= 1")
		}
		if t := c.Collect.SimilarityThreshold; t <= 0 || t > 1 {
			errs = append(errs, "collect.similarity_threshold must be in (0, 1]")
		}
		if strings.TrimSpace(c.Collect.OutputDir) == "" {
			errs = append(errs, "collect.output_dir is required")
		}
		for name, p := range map[string]ProviderConfig{"google": c.Providers.Google, "yelp": c.Providers.Yelp, "osm": c.Providers.OSM} {
			if p.DelayMs < 0 {
				errs = append(errs, "providers."+name+".delay_ms must be >= 0")
			}
		}
	case "grid":
		errs = append(errs, c.validateGrid()...)
	case "status":
		if strings.TrimSpace(c.Collect.OutputDir) == "" {
			errs = append(errs, "collect.output_dir is required")
		}
	case "export":
		switch c.Store.Driver {
		case "sqlite", "csv", "xlsx":
		case "postgres":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required for postgres")
			}
		default:
			errs = append(errs, "store.driver must be one of csv, xlsx, sqlite, postgres")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateGrid() []string {
	var errs []string
	if c.Collect.SpacingKM <= 0 {
		errs = append(errs, "collect.spacing_km must be > 0")
	}
	if c.Collect.SearchRadiusM <= 0 {
		errs = append(errs, "collect.search_radius_m must be > 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	logger, _, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// AttachLogFile tees the global logger into an append-only, human-readable
// log file at path. The returned func syncs and closes the file and restores
// the previous global logger.
func AttachLogFile(cfg LogConfig, path string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrap(err, "config: create log dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "config: open log file %s", path)
	}

	base, level, err := buildLogger(cfg)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = zapcore.OmitKey
	encCfg.StacktraceKey = zapcore.OmitKey
	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), level)

	logger := base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
	restore := zap.ReplaceGlobals(logger)

	return func() error {
		_ = logger.Sync()
		restore()
		return f.Close()
	}, nil
}

func buildLogger(cfg LogConfig) (*zap.Logger, zap.AtomicLevel, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, eris.Wrap(err, "config: build logger")
	}
	return logger, zapCfg.Level, nil
}
