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
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Snapshot SnapshotConfig `yaml:"snapshot" mapstructure:"snapshot"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// EngineConfig configures the classification engine.
type EngineConfig struct {
	Workers       int   `yaml:"workers" mapstructure:"workers"`
	MemoryLimitMB int64 `yaml:"memory_limit_mb" mapstructure:"memory_limit_mb"`
	MaxRounds     int   `yaml:"max_rounds" mapstructure:"max_rounds"`
}

// MemoryLimitBytes returns the memory ceiling in bytes, 0 when unlimited.
func (e EngineConfig) MemoryLimitBytes() int64 {
	return e.MemoryLimitMB << 20
}

// SnapshotConfig selects the zone snapshot store.
type SnapshotConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// OutputConfig configures result files.
type OutputConfig struct {
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
	v.SetEnvPrefix("RISKZONES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.memory_limit_mb", 1024)
	v.SetDefault("engine.max_rounds", 0)
	v.SetDefault("snapshot.driver", "file")
	v.SetDefault("snapshot.sqlite_path", "riskzones.db")
	v.SetDefault("output.format", "csv")

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

// Validate checks the application config and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Engine.Workers < 0 {
		errs = append(errs, "engine.workers must be >= 0")
	}
	if c.Engine.MemoryLimitMB < 0 {
		errs = append(errs, "engine.memory_limit_mb must be >= 0")
	}
	if c.Engine.MaxRounds < 0 {
		errs = append(errs, "engine.max_rounds must be >= 0")
	}
	switch c.Snapshot.Driver {
	case "file":
	case "sqlite":
		if c.Snapshot.SQLitePath == "" {
			errs = append(errs, "snapshot.sqlite_path is required for the sqlite driver")
		}
	default:
		errs = append(errs, "snapshot.driver must be file or sqlite")
	}
	switch c.Output.Format {
	case "csv", "xlsx":
	default:
		errs = append(errs, "output.format must be csv or xlsx")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
