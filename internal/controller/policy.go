package controller

import (
	"fmt"
	"log/slog"
)

// Policy holds the behaviors the viewer scripts never settled on
type Policy struct {
	// ClearHighlightOnIsolate clears the selection before isolating.
	ClearHighlightOnIsolate bool
	// ReclickTogglesIsolation makes isolating the already isolated root
	// leave isolation instead of re-applying it.
	ReclickTogglesIsolation bool
	// ResetClearsMeasurements removes all measurements on ResetAll.
	ResetClearsMeasurements bool
}

// DefaultPolicy clears highlight on isolation and re-applies on re-click
func DefaultPolicy() Policy {
	return Policy{ClearHighlightOnIsolate: true}
}

// Mode is the scene-wide interaction mode
type Mode struct {
	Isolated bool   `json:"isolated"`
	Root     string `json:"root,omitempty"`
}

// Free is the mode without isolation
var Free = Mode{}

// Isolated returns the mode isolating root
func Isolated(root string) Mode {
	return Mode{Isolated: true, Root: root}
}

func (m Mode) String() string {
	if !m.Isolated {
		return "free"
	}
	return fmt.Sprintf("isolated(%s)", m.Root)
}

// Option configures a Controller
type Option func(*Controller)

// WithPolicy overrides DefaultPolicy
func WithPolicy(p Policy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}
