package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Toolbox ToolboxConfig `yaml:"toolbox" mapstructure:"toolbox"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ToolboxConfig configures the PROJ and GDAL toolbox.
type ToolboxConfig struct {
	TransformCacheSize int  `yaml:"transform_cache_size" mapstructure:"transform_cache_size"`
	AllTouched         bool `yaml:"all_touched" mapstructure:"all_touched"`
}

// OutputConfig configures output files.
type OutputConfig struct {
	Overwrite bool `yaml:"overwrite" mapstructure:"overwrite"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("rastergrid")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RASTERGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("toolbox.transform_cache_size", 16)
	v.SetDefault("toolbox.all_touched", false)
	v.SetDefault("output.overwrite", true)

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

// Validate checks that cfg's values are usable.
func (cfg *Config) Validate() error {
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return eris.Errorf("config: unknown log format %q", cfg.Log.Format)
	}
	if cfg.Toolbox.TransformCacheSize < 1 {
		return eris.Errorf("config: toolbox.transform_cache_size must be positive, got %d", cfg.Toolbox.TransformCacheSize)
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
