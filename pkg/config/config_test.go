package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stillcam/pkg/camera"
	"stillcam/pkg/camera/pattern"
	"stillcam/pkg/camera/v4l"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Camera.Device != camera.DefaultDevice || cfg.Output != DefaultOutput {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	sc := cfg.StreamConfig()
	if sc.Format != camera.PixelFormatRGB24 || sc.WaitTimeout != camera.DefaultWaitTimeout {
		t.Fatalf("stream config %+v", sc)
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "stillcam.yaml")
	data := `
camera:
  source: pattern
  width: 320
  height: 240
  wait_timeout: 2s
  controls:
    10094849: 1
output: still.bmp
schedule:
  interval: 1m
`
	if err := os.WriteFile(p, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Camera.Source != SourcePattern || cfg.Camera.Width != 320 || cfg.Camera.Height != 240 {
		t.Fatalf("camera %+v", cfg.Camera)
	}
	if cfg.Camera.WaitTimeout != 2*time.Second || cfg.Schedule.Interval != time.Minute {
		t.Fatalf("durations %s %s", cfg.Camera.WaitTimeout, cfg.Schedule.Interval)
	}
	if cfg.Camera.Controls[10094849] != 1 {
		t.Fatalf("controls %v", cfg.Camera.Controls)
	}
	// untouched fields keep their defaults
	if cfg.Camera.Device != camera.DefaultDevice || cfg.Server.Port != 9999 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.Output != "still.bmp" {
		t.Fatalf("output %q", cfg.Output)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("STILLCAM_DEVICE", "/dev/video2")
	t.Setenv("STILLCAM_WIDTH", "1280")
	t.Setenv("STILLCAM_WAIT_TIMEOUT", "10s")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Camera.Device != "/dev/video2" || cfg.Camera.Width != 1280 || cfg.Camera.WaitTimeout != 10*time.Second {
		t.Fatalf("camera %+v", cfg.Camera)
	}

	t.Setenv("STILLCAM_HEIGHT", "tall")
	if _, err = Load(""); err == nil {
		t.Fatal("expected error for bad STILLCAM_HEIGHT")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name      string
		modify    func(*Config)
		expectErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"pattern without device", func(c *Config) { c.Camera.Source = SourcePattern; c.Camera.Device = "" }, false},
		{"unknown source", func(c *Config) { c.Camera.Source = "libcamera" }, true},
		{"empty device", func(c *Config) { c.Camera.Device = "" }, true},
		{"zero width", func(c *Config) { c.Camera.Width = 0 }, true},
		{"negative height", func(c *Config) { c.Camera.Height = -1 }, true},
		{"zero timeout", func(c *Config) { c.Camera.WaitTimeout = 0 }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"negative interval", func(c *Config) { c.Schedule.Interval = -time.Second }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.expectErr && err == nil {
				t.Error("expected an error")
			}
			if !tc.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewSource(t *testing.T) {
	cfg := Default()
	cfg.Camera.Source = SourcePattern
	cfg.Camera.Width, cfg.Camera.Height = 8, 2
	if _, ok := cfg.NewSource(nil).(*pattern.Source); !ok {
		t.Fatal("pattern source expected")
	}
	if _, ok := Default().NewSource(nil).(*v4l.Device); !ok {
		t.Fatal("v4l2 source expected")
	}

	sess := cfg.NewSession(nil)
	if err := sess.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer sess.Exit()
	if sess.Width() != 8 || sess.Height() != 2 {
		t.Fatalf("size %dx%d", sess.Width(), sess.Height())
	}
}
