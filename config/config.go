// Package config loads scenedemo settings from a YAML file and SCENEDEMO_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "SCENEDEMO"

type Config struct {
	InitialScene      string   `mapstructure:"initial_scene"`
	Manifest          string   `mapstructure:"manifest"`
	AssetsDir         string   `mapstructure:"assets_dir"`
	TPS               int      `mapstructure:"tps"`
	FadeSeconds       float64  `mapstructure:"fade_seconds"`
	LoadProgressSlots int      `mapstructure:"load_progress_slots"`
	Batch             int      `mapstructure:"batch"`
	Watch             bool     `mapstructure:"watch"`
	MonitorAddr       string   `mapstructure:"monitor_addr"`
	MonitorOrigins    []string `mapstructure:"monitor_origins"`
	Log               Log      `mapstructure:"log"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("initial_scene", "")
	v.SetDefault("manifest", "scenes.yaml")
	v.SetDefault("assets_dir", "")
	v.SetDefault("tps", 60)
	v.SetDefault("fade_seconds", 0.33)
	v.SetDefault("load_progress_slots", 5)
	v.SetDefault("batch", 64)
	v.SetDefault("watch", false)
	v.SetDefault("monitor_addr", "")
	v.SetDefault("monitor_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.path", "")
}

// Load reads path when non-empty, otherwise scenedemo.yaml from the working
// directory if present. Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scenedemo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TPS < 1 {
		return fmt.Errorf("config: tps must be positive, got %d", c.TPS)
	}
	if c.FadeSeconds < 0 {
		return fmt.Errorf("config: fade_seconds must not be negative, got %v", c.FadeSeconds)
	}
	if c.LoadProgressSlots < 1 {
		return fmt.Errorf("config: load_progress_slots must be at least 1, got %d", c.LoadProgressSlots)
	}
	if c.Batch < 1 {
		return fmt.Errorf("config: batch must be at least 1, got %d", c.Batch)
	}
	return nil
}

// FadeTicks converts FadeSeconds to frames at TPS, at least one.
func (c *Config) FadeTicks() int {
	n := int(c.FadeSeconds*float64(c.TPS) + 0.5)
	if n < 1 {
		return 1
	}
	return n
}
