// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/philipparndt/gobim/internal/controller"
)

// Config holds the settings shared by the gobim commands. Command-line flags
// override the values parsed here.
type Config struct {
	LogLevel slog.Level `env:"GOBIM_LOG_LEVEL" envDefault:"INFO"`
	Addr     string     `env:"GOBIM_ADDR"      envDefault:"127.0.0.1:8087"`
	ViewsDB  string     `env:"GOBIM_VIEWS_DB"  envDefault:"gobim-views.db"`
	OpenSCAD string     `env:"GOBIM_OPENSCAD"  envDefault:"openscad"`

	IsolateClearsHighlight  bool `env:"GOBIM_ISOLATE_CLEARS_HIGHLIGHT"   envDefault:"true"`
	ReclickTogglesIsolation bool `env:"GOBIM_RECLICK_TOGGLES_ISOLATION"  envDefault:"false"`
	ResetClearsMeasurements bool `env:"GOBIM_RESET_CLEARS_MEASUREMENTS"  envDefault:"false"`

	WatchDebounce time.Duration `env:"GOBIM_WATCH_DEBOUNCE" envDefault:"500ms"`
}

// ParseEnv parses environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Policy returns the controller policy selected by the configuration.
func (c Config) Policy() controller.Policy {
	return controller.Policy{
		ClearHighlightOnIsolate: c.IsolateClearsHighlight,
		ReclickTogglesIsolation: c.ReclickTogglesIsolation,
		ResetClearsMeasurements: c.ResetClearsMeasurements,
	}
}
