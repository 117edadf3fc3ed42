// Package config provides application configuration management for
// ptyglass. Settings live in ~/.ptyglass/config.toml; every tunable has
// a default, so a missing file or missing keys never disable behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ptyglass/ptyglass/internal/gesture"
)

// Duration is a time.Duration that decodes from TOML strings like "8ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML encoding.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds the ptyglass configuration.
type Config struct {
	Connection ConnectionConfig `toml:"connection"`
	Display    DisplayConfig    `toml:"display"`
	Scroll     ScrollConfig     `toml:"scroll"`
	Gesture    GestureConfig    `toml:"gesture"`
	Queue      QueueConfig      `toml:"queue"`
	Log        LogConfig        `toml:"log"`
	Debug      DebugConfig      `toml:"debug"`
}

// ConnectionConfig holds the remote endpoint settings.
type ConnectionConfig struct {
	URL   string `toml:"url"`   // WebSocket terminal stream endpoint
	Token string `toml:"token"` // Bearer token, empty for none
}

// DisplayConfig holds rendering settings.
type DisplayConfig struct {
	LineHeight  float64 `toml:"line_height"` // Pixel height of one row
	Scrollback  int     `toml:"scrollback"`  // Row cap before old rows drop
	Diagnostics bool    `toml:"diagnostics"` // Show the render overlay
}

// ScrollConfig holds viewport tunables.
type ScrollConfig struct {
	AtBottomTolerance float64 `toml:"at_bottom_tolerance"` // In line heights
	WheelLines        float64 `toml:"wheel_lines"`         // Rows per wheel notch
}

// GestureConfig holds the touch recognizer thresholds. Distances are
// pixels, velocities px/ms.
type GestureConfig struct {
	LongPress         Duration `toml:"long_press"`
	DoubleTapInterval Duration `toml:"double_tap_interval"`
	DoubleTapRadius   float64  `toml:"double_tap_radius"`
	ScrollThreshold   float64  `toml:"scroll_threshold"`
	ScrollWindow      Duration `toml:"scroll_window"`
	MinScrollDelta    float64  `toml:"min_scroll_delta"`
	SwipeMinDistance  float64  `toml:"swipe_min_distance"`
	SwipeMaxDuration  Duration `toml:"swipe_max_duration"`
	SwipeMinVelocity  float64  `toml:"swipe_min_velocity"`
	SwipeAngleDegrees float64  `toml:"swipe_angle_degrees"`
	FeedbackDuration  Duration `toml:"feedback_duration"`
}

// Recognizer converts the section into the gesture package's config.
func (g GestureConfig) Recognizer() gesture.Config {
	return gesture.Config{
		LongPress:         g.LongPress.Duration,
		DoubleTapInterval: g.DoubleTapInterval.Duration,
		DoubleTapRadius:   g.DoubleTapRadius,
		ScrollThreshold:   g.ScrollThreshold,
		ScrollWindow:      g.ScrollWindow.Duration,
		MinScrollDelta:    g.MinScrollDelta,
		SwipeMinDistance:  g.SwipeMinDistance,
		SwipeMaxDuration:  g.SwipeMaxDuration.Duration,
		SwipeMinVelocity:  g.SwipeMinVelocity,
		SwipeAngleDegrees: g.SwipeAngleDegrees,
		FeedbackDuration:  g.FeedbackDuration.Duration,
	}
}

// QueueConfig holds operation queue settings.
type QueueConfig struct {
	FrameBudget Duration `toml:"frame_budget"` // Drain budget per frame
}

// LogConfig holds logging settings.
type LogConfig struct {
	File string `toml:"file"` // Log file path, empty disables logging
}

// DebugConfig holds the optional debug HTTP endpoint.
type DebugConfig struct {
	Addr string `toml:"addr"` // Listen address, empty disables the server
}

// Default returns a configuration with every tunable set.
func Default() Config {
	gd := gesture.DefaultConfig()
	return Config{
		Display: DisplayConfig{
			LineHeight: 24,
			Scrollback: 10000,
		},
		Scroll: ScrollConfig{
			AtBottomTolerance: 1.0,
			WheelLines:        3,
		},
		Gesture: GestureConfig{
			LongPress:         Duration{gd.LongPress},
			DoubleTapInterval: Duration{gd.DoubleTapInterval},
			DoubleTapRadius:   gd.DoubleTapRadius,
			ScrollThreshold:   gd.ScrollThreshold,
			ScrollWindow:      Duration{gd.ScrollWindow},
			MinScrollDelta:    gd.MinScrollDelta,
			SwipeMinDistance:  gd.SwipeMinDistance,
			SwipeMaxDuration:  Duration{gd.SwipeMaxDuration},
			SwipeMinVelocity:  gd.SwipeMinVelocity,
			SwipeAngleDegrees: gd.SwipeAngleDegrees,
			FeedbackDuration:  Duration{gd.FeedbackDuration},
		},
		Queue: QueueConfig{
			FrameBudget: Duration{8 * time.Millisecond},
		},
	}
}

// Dir returns the path to the .ptyglass directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ptyglass"), nil
}

// Path returns the path to the main config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from ~/.ptyglass/config.toml. A missing
// file yields defaults.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from an explicit path. Decoding
// starts from defaults so missing keys keep their default values.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to ~/.ptyglass/config.toml.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
