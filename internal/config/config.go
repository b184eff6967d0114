// Package config resolves runtime settings from defaults, a .env file,
// VERSEGEN_* environment variables, an optional config file and CLI flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreLibSQL = "libsql"
	StoreRedis  = "redis"
)

// Config holds all runtime configuration for a versegen run.
type Config struct {
	DB          string   `mapstructure:"db"`
	Store       string   `mapstructure:"store"`
	RedisURL    string   `mapstructure:"redis_url"`
	Corpus      string   `mapstructure:"corpus"`
	CorpusPaths []string `mapstructure:"corpus_paths"`
	Dict        string   `mapstructure:"dict"`
	Strategy    string   `mapstructure:"strategy"`
	MaxAttempts int      `mapstructure:"max_attempts"`
	// Seed drives shuffling and seed picks. Zero means time-based.
	Seed      uint64 `mapstructure:"seed"`
	Workers   int    `mapstructure:"workers"`
	BatchSize int    `mapstructure:"batch_size"`
	// Forms is a TOML forms file. Empty means the built-in forms.
	Forms   string `mapstructure:"forms"`
	Verbose bool   `mapstructure:"verbose"`
}

// Init points viper at cfgFile, or at versegen.{yaml,toml} in the working
// directory, and loads .env into the environment when present. A missing
// config file or .env is not an error.
func Init(cfgFile string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("versegen")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("VERSEGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("db", "versegen.db")
	viper.SetDefault("store", StoreSQLite)
	viper.SetDefault("redis_url", "redis://localhost:6379/0")
	viper.SetDefault("corpus", "default")
	viper.SetDefault("corpus_paths", []string{})
	viper.SetDefault("dict", "cmudict.dict")
	viper.SetDefault("strategy", "single")
	viper.SetDefault("max_attempts", 50)
	viper.SetDefault("seed", 0)
	viper.SetDefault("workers", 4)
	viper.SetDefault("batch_size", 50)
	viper.SetDefault("forms", "")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the enumerated and numeric settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreLibSQL, StoreRedis:
	default:
		return fmt.Errorf("store must be %s, %s or %s, got %q", StoreSQLite, StoreLibSQL, StoreRedis, c.Store)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive, got %d", c.MaxAttempts)
	}
	if strings.TrimSpace(c.Corpus) == "" {
		return fmt.Errorf("corpus must be non-empty")
	}
	return nil
}
