// Package config loads stillcam settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"stillcam/pkg/camera"
)

const (
	SourceV4L2    = "v4l2"
	SourcePattern = "pattern"

	DefaultOutput = "foobar.bmp"
	EnvPrefix     = "STILLCAM_"
)

type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Output   string         `yaml:"output"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Schedule ScheduleConfig `yaml:"schedule"`
	NTP      NTPConfig      `yaml:"ntp"`
	Log      LogConfig      `yaml:"log"`
}

type CameraConfig struct {
	Source      string           `yaml:"source"` // v4l2 or pattern
	Device      string           `yaml:"device"`
	Width       int              `yaml:"width"`
	Height      int              `yaml:"height"`
	FPS         int              `yaml:"fps"`
	Buffers     int              `yaml:"buffers"`
	WaitTimeout time.Duration    `yaml:"wait_timeout"`
	Controls    map[uint32]int32 `yaml:"controls"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

type ServerConfig struct {
	Port       int `yaml:"port"`
	WebdavPort int `yaml:"webdav_port"`
}

type ScheduleConfig struct {
	// zero disables interval capture
	Interval time.Duration `yaml:"interval"`
}

type NTPConfig struct {
	Server  string        `yaml:"server"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Source:      SourceV4L2,
			Device:      camera.DefaultDevice,
			Width:       camera.DefaultWidth,
			Height:      camera.DefaultHeight,
			FPS:         camera.DefaultFPS,
			Buffers:     camera.DefaultBuffers,
			WaitTimeout: camera.DefaultWaitTimeout,
		},
		Output:  DefaultOutput,
		Storage: StorageConfig{Dir: "./stillcam"},
		Server: ServerConfig{
			Port:       9999,
			WebdavPort: 9998,
		},
		NTP: NTPConfig{Timeout: 3 * time.Second},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults (a missing path is not an error when
// path is empty), applies STILLCAM_* environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Camera.Source, "SOURCE")
	setString(&c.Camera.Device, "DEVICE")
	setString(&c.Output, "OUTPUT")
	setString(&c.Storage.Dir, "DIR")
	setString(&c.NTP.Server, "NTP_SERVER")
	setString(&c.Log.Level, "LOG_LEVEL")

	return errors.Join(
		setInt(&c.Camera.Width, "WIDTH"),
		setInt(&c.Camera.Height, "HEIGHT"),
		setInt(&c.Server.Port, "PORT"),
		setDuration(&c.Camera.WaitTimeout, "WAIT_TIMEOUT"),
		setDuration(&c.Schedule.Interval, "INTERVAL"),
	)
}

func (c *Config) Validate() error {
	switch c.Camera.Source {
	case SourceV4L2, SourcePattern:
	default:
		return fmt.Errorf("unknown camera source %q", c.Camera.Source)
	}
	if c.Camera.Source == SourceV4L2 && c.Camera.Device == "" {
		return errors.New("camera device can not be empty")
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS < 0 || c.Camera.Buffers < 0 {
		return fmt.Errorf("invalid fps %d or buffers %d", c.Camera.FPS, c.Camera.Buffers)
	}
	if c.Camera.WaitTimeout <= 0 {
		return fmt.Errorf("invalid wait timeout %s", c.Camera.WaitTimeout)
	}
	for _, p := range []int{c.Server.Port, c.Server.WebdavPort} {
		if p < 1 || p > 65535 {
			return fmt.Errorf("invalid port: %d", p)
		}
	}
	if c.Schedule.Interval < 0 {
		return fmt.Errorf("invalid schedule interval %s", c.Schedule.Interval)
	}

	return nil
}

// StreamConfig is the camera section as a request to a capture source.
func (c *Config) StreamConfig() camera.StreamConfig {
	return camera.StreamConfig{
		Width:       c.Camera.Width,
		Height:      c.Camera.Height,
		FPS:         c.Camera.FPS,
		Buffers:     c.Camera.Buffers,
		Format:      camera.PixelFormatRGB24,
		WaitTimeout: c.Camera.WaitTimeout,
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = d
	return nil
}
