// Package config loads server configuration from an optional YAML file
// with environment overrides on top.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Day    DayConfig    `yaml:"day"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DataConfig struct {
	// Dir holds the sqlite database and backups.
	Dir string `yaml:"dir"`
}

type DayConfig struct {
	// GatherWindowDays is how many days ahead (today included) the
	// gathering step materializes occurrences for.
	GatherWindowDays int `yaml:"gather_window_days"`
	// DefaultRoutineTime is the start time given to routine occurrences
	// whose routine has no time blocks configured.
	DefaultRoutineTime string `yaml:"default_routine_time"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Data:   DataConfig{Dir: "data"},
		Day: DayConfig{
			GatherWindowDays:   3,
			DefaultRoutineTime: "09:00",
		},
	}
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Data.Dir == "" {
		c.Data.Dir = d.Data.Dir
	}
	if c.Day.GatherWindowDays <= 0 {
		c.Day.GatherWindowDays = d.Day.GatherWindowDays
	}
	if c.Day.DefaultRoutineTime == "" {
		c.Day.DefaultRoutineTime = d.Day.DefaultRoutineTime
	}
}

// Load reads the config file at path, fills in defaults and applies env
// overrides. An empty path or missing file yields the defaults plus env.
func Load(path string) (Config, error) {
	c := Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// config file is optional
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	c.applyDefaults()
	c.applyEnv()
	return c, nil
}
