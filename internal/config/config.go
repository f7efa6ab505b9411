// Package config loads ggremote settings from defaults, an optional TOML
// file and GGREMOTE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GGREMOTE_LISTEN_ADDRESS.
const EnvPrefix = "GGREMOTE"

// Config holds application configuration.
type Config struct {
	Listen ListenConfig
	Render RenderConfig
	Log    LogConfig
}

// ListenConfig holds the websocket listener settings.
type ListenConfig struct {
	Address   string
	Path      string
	ReadLimit int64 `mapstructure:"read_limit"`
}

// RenderConfig holds the headless render loop settings.
type RenderConfig struct {
	Interval time.Duration
	Width    uint32
	Height   uint32
	Pipeline uint32
	Backend  string
	// Output is a PNG path each produced frame is written to; empty disables it.
	Output     string
	ShapeCache int `mapstructure:"shape_cache"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen.address", "127.0.0.1:6767")
	v.SetDefault("listen.path", "/")
	v.SetDefault("listen.read_limit", 16<<20)
	v.SetDefault("render.interval", "16ms")
	v.SetDefault("render.width", 1024)
	v.SetDefault("render.height", 768)
	v.SetDefault("render.pipeline", 0)
	v.SetDefault("render.backend", "raster")
	v.SetDefault("render.output", "")
	v.SetDefault("render.shape_cache", 1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// DefaultPath returns the config file used when neither an explicit path
// nor GGREMOTE_CONFIG is given.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "ggremote", "config.toml")
}

// Load reads configuration. path, if not empty, names a TOML file that
// must exist; otherwise GGREMOTE_CONFIG or DefaultPath is read if present.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "_CONFIG")
		explicit = path != ""
	}
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Default returns the configuration with every value at its default.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return c
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Listen.Address == "" {
		errs = append(errs, errors.New("listen.address is empty"))
	}
	if !strings.HasPrefix(c.Listen.Path, "/") {
		errs = append(errs, fmt.Errorf("listen.path %q must start with /", c.Listen.Path))
	}
	if c.Listen.ReadLimit <= 0 {
		errs = append(errs, fmt.Errorf("listen.read_limit %d must be positive", c.Listen.ReadLimit))
	}
	if c.Render.Interval <= 0 {
		errs = append(errs, fmt.Errorf("render.interval %v must be positive", c.Render.Interval))
	}
	if c.Render.Width == 0 || c.Render.Height == 0 {
		errs = append(errs, fmt.Errorf("render size %dx%d must be non-zero", c.Render.Width, c.Render.Height))
	}
	if c.Render.ShapeCache < 0 {
		errs = append(errs, fmt.Errorf("render.shape_cache %d must not be negative", c.Render.ShapeCache))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Save writes cfg to path as TOML, creating the directory if needed.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("listen.address", cfg.Listen.Address)
	v.Set("listen.path", cfg.Listen.Path)
	v.Set("listen.read_limit", cfg.Listen.ReadLimit)
	v.Set("render.interval", cfg.Render.Interval.String())
	v.Set("render.width", cfg.Render.Width)
	v.Set("render.height", cfg.Render.Height)
	v.Set("render.pipeline", cfg.Render.Pipeline)
	v.Set("render.backend", cfg.Render.Backend)
	v.Set("render.output", cfg.Render.Output)
	v.Set("render.shape_cache", cfg.Render.ShapeCache)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
