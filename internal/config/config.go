// Package config loads liftviz configuration from an optional YAML file,
// LIFTVIZ_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/teslashibe/liftviz/pkg/animation"
)

// EnvPrefix prefixes every environment override, e.g. LIFTVIZ_SERVER_PORT.
const EnvPrefix = "LIFTVIZ"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Animation AnimationConfig `mapstructure:"animation"`
	Skeleton  SkeletonConfig  `mapstructure:"skeleton"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// AnimationConfig configures session drivers
type AnimationConfig struct {
	FrameRate    float64 `mapstructure:"frame_rate"` // ticks per second while playing
	TempoMin     float64 `mapstructure:"tempo_min"`
	TempoMax     float64 `mapstructure:"tempo_max"`
	DefaultTempo float64 `mapstructure:"default_tempo"`
	Autoplay     bool    `mapstructure:"autoplay"`
}

// SkeletonConfig configures custom lift definitions
type SkeletonConfig struct {
	CustomDir string `mapstructure:"custom_dir"` // directory of *.yaml definitions, empty for none
	Watch     bool   `mapstructure:"watch"`      // reload CustomDir on change
}

// LogConfig configures logging
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8090"},
		Animation: AnimationConfig{
			FrameRate:    60,
			TempoMin:     0.3,
			TempoMax:     3.0,
			DefaultTempo: 1.0,
			Autoplay:     true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("animation.frame_rate", cfg.Animation.FrameRate)
	v.SetDefault("animation.tempo_min", cfg.Animation.TempoMin)
	v.SetDefault("animation.tempo_max", cfg.Animation.TempoMax)
	v.SetDefault("animation.default_tempo", cfg.Animation.DefaultTempo)
	v.SetDefault("animation.autoplay", cfg.Animation.Autoplay)
	v.SetDefault("skeleton.custom_dir", cfg.Skeleton.CustomDir)
	v.SetDefault("skeleton.watch", cfg.Skeleton.Watch)
	v.SetDefault("log.level", cfg.Log.Level)
}

// Read loads the config file into v. With an empty path it looks for
// liftviz.yaml in the working directory and $HOME/.liftviz; a missing file
// is not an error then.
func Read(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("liftviz")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.liftviz")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Decode unmarshals v into a validated Config.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads path (optional) and the environment into a Config.
func Load(path string) (*Config, error) {
	v := New()
	if err := Read(v, path); err != nil {
		return nil, err
	}
	return Decode(v)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	a := c.Animation
	switch {
	case c.Server.Port == "":
		return errors.New("config: server.port is empty")
	case a.FrameRate <= 0:
		return fmt.Errorf("config: animation.frame_rate must be positive, got %v", a.FrameRate)
	case a.TempoMin <= 0 || a.TempoMax < a.TempoMin:
		return fmt.Errorf("config: animation tempo range [%v, %v] is invalid", a.TempoMin, a.TempoMax)
	}
	return nil
}

// DriverOptions converts the animation section for session drivers.
func (c *Config) DriverOptions() animation.DriverOptions {
	return animation.DriverOptions{
		FrameRate: c.Animation.FrameRate,
		Tempo:     c.Animation.DefaultTempo,
		TempoMin:  c.Animation.TempoMin,
		TempoMax:  c.Animation.TempoMax,
		Autoplay:  c.Animation.Autoplay,
	}
}
