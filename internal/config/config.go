package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Source dataset
	DataPath         string `mapstructure:"data_path" yaml:"data_path"`
	Delimiter        string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	SheetName        string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex       int    `mapstructure:"sheet_index" yaml:"sheet_index"`

	DefaultValueColumn string `mapstructure:"default_value_column" yaml:"default_value_column"`
	ViewsDir           string `mapstructure:"views_dir" yaml:"views_dir"`
	LogLevel           string `mapstructure:"log_level" yaml:"log_level"`

	// HTTP service
	ListenAddr      string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	CORSOrigins     []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	ReadTimeoutSec  int      `mapstructure:"read_timeout_sec" yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `mapstructure:"write_timeout_sec" yaml:"write_timeout_sec"`

	// Reload on source change
	Watch           bool `mapstructure:"watch" yaml:"watch"`
	WatchDebounceMs int  `mapstructure:"watch_debounce_ms" yaml:"watch_debounce_ms"`
}

// ReadTimeout returns the server read timeout.
func (c *Global) ReadTimeout() time.Duration { return time.Duration(c.ReadTimeoutSec) * time.Second }

// WriteTimeout returns the server write timeout.
func (c *Global) WriteTimeout() time.Duration { return time.Duration(c.WriteTimeoutSec) * time.Second }

// WatchDebounce returns the reload debounce delay.
func (c *Global) WatchDebounce() time.Duration {
	if c.WatchDebounceMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.WatchDebounceMs) * time.Millisecond
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".demograph"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.demograph/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DEMOGRAPH")
	v.AutomaticEnv()

	v.SetDefault("data_path", "demograph.csv")
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", ".")
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 1)
	v.SetDefault("default_value_column", "youth")
	v.SetDefault("views_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("read_timeout_sec", 15)
	v.SetDefault("write_timeout_sec", 30)
	v.SetDefault("watch", false)
	v.SetDefault("watch_debounce_ms", 500)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; an explicit file that exists must parse
	if err := v.ReadInConfig(); err != nil && cfgFile != "" && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ViewsDir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		c.ViewsDir = filepath.Join(dir, "views")
	}
	return &c, nil
}
