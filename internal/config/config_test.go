package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Display.LineHeight != 24 {
		t.Errorf("line height = %v", cfg.Display.LineHeight)
	}
	if cfg.Display.Scrollback != 10000 {
		t.Errorf("scrollback = %d", cfg.Display.Scrollback)
	}
	if cfg.Scroll.WheelLines != 3 {
		t.Errorf("wheel lines = %v", cfg.Scroll.WheelLines)
	}
	if cfg.Queue.FrameBudget.Duration != 8*time.Millisecond {
		t.Errorf("frame budget = %v", cfg.Queue.FrameBudget.Duration)
	}

	g := cfg.Gesture.Recognizer()
	if g.LongPress != 500*time.Millisecond {
		t.Errorf("long press = %v", g.LongPress)
	}
	if g.DoubleTapInterval != 300*time.Millisecond {
		t.Errorf("double tap interval = %v", g.DoubleTapInterval)
	}
	if g.SwipeMinDistance != 50 || g.SwipeMinVelocity != 0.1 {
		t.Errorf("swipe gate = %v px, %v px/ms", g.SwipeMinDistance, g.SwipeMinVelocity)
	}
}

func TestLoadFrom_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Error("missing file did not yield defaults")
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[connection]
url = "wss://host.example/terminal"

[display]
line_height = 18.5

[gesture]
long_press = "650ms"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Connection.URL != "wss://host.example/terminal" {
		t.Errorf("url = %q", cfg.Connection.URL)
	}
	if cfg.Display.LineHeight != 18.5 {
		t.Errorf("line height = %v", cfg.Display.LineHeight)
	}
	if cfg.Gesture.LongPress.Duration != 650*time.Millisecond {
		t.Errorf("long press = %v", cfg.Gesture.LongPress.Duration)
	}

	// Untouched sections keep defaults.
	if cfg.Display.Scrollback != 10000 {
		t.Errorf("scrollback = %d, want default", cfg.Display.Scrollback)
	}
	if cfg.Gesture.DoubleTapRadius != 20 {
		t.Errorf("double tap radius = %v, want default", cfg.Gesture.DoubleTapRadius)
	}
}

func TestLoadFrom_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[queue]\nframe_budget = \"soon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("invalid duration accepted")
	}
}

func TestLoadFrom_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[display\nline_height = 1"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("malformed file accepted")
	}
}
