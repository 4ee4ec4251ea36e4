package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Tang0602/Amap/internal/geo"
)

// Config holds the full application configuration.
type Config struct {
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ExtractConfig configures entity extraction and batch writing.
type ExtractConfig struct {
	BatchSize         int    `yaml:"batch_size" mapstructure:"batch_size"`
	TagsMaxLen        int    `yaml:"tags_max_len" mapstructure:"tags_max_len"`
	HouseNumberSuffix string `yaml:"house_number_suffix" mapstructure:"house_number_suffix"`
}

// ClassifyConfig points at an optional category rule file. Empty means the
// built-in table.
type ClassifyConfig struct {
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// SearchConfig holds query defaults for the lookup commands.
type SearchConfig struct {
	DefaultLimit   int     `yaml:"default_limit" mapstructure:"default_limit"`
	DefaultRadiusM float64 `yaml:"default_radius_m" mapstructure:"default_radius_m"`
	MaxRadiusM     float64 `yaml:"max_radius_m" mapstructure:"max_radius_m"`
}

// StoreConfig configures the output database.
type StoreConfig struct {
	Path    string `yaml:"path" mapstructure:"path"`
	Version string `yaml:"version" mapstructure:"version"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("extract.batch_size", 1000)
	v.SetDefault("extract.tags_max_len", 500)
	v.SetDefault("extract.house_number_suffix", "号")
	v.SetDefault("classify.rules_file", "")
	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.default_radius_m", 5000)
	v.SetDefault("search.max_radius_m", 50000)
	v.SetDefault("store.path", "poi_data.db")
	v.SetDefault("store.version", "1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
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

// Validate checks value ranges. All problems are reported together.
func (c *Config) Validate() error {
	var problems []string
	if c.Extract.BatchSize < 1 {
		problems = append(problems, "extract.batch_size must be at least 1")
	}
	if c.Extract.TagsMaxLen < 1 {
		problems = append(problems, "extract.tags_max_len must be at least 1")
	}
	if c.Search.DefaultLimit < 1 {
		problems = append(problems, "search.default_limit must be at least 1")
	}
	if c.Search.DefaultRadiusM <= 0 {
		problems = append(problems, "search.default_radius_m must be positive")
	}
	if c.Search.MaxRadiusM < c.Search.DefaultRadiusM {
		problems = append(problems, "search.max_radius_m must not be below search.default_radius_m")
	}
	if c.Search.MaxRadiusM > geo.MaxRadiusMeters {
		problems = append(problems, fmt.Sprintf("search.max_radius_m must not exceed %.0f", geo.MaxRadiusMeters))
	}
	if c.Store.Version == "" {
		problems = append(problems, "store.version is required")
	}
	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
