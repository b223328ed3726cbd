package config

import (
	"go.uber.org/zap"

	"stillcam/pkg/camera"
	"stillcam/pkg/camera/pattern"
	"stillcam/pkg/camera/v4l"
)

// NewSource builds the capture source named by the camera section.
func (c *Config) NewSource(logger *zap.SugaredLogger) camera.Source {
	if c.Camera.Source == SourcePattern {
		return pattern.New()
	}

	return v4l.New(c.Camera.Device, v4l.WithControls(c.Camera.Controls), v4l.WithLogger(logger))
}

// NewSession wraps the configured source in a capture session.
func (c *Config) NewSession(logger *zap.SugaredLogger) *camera.Session {
	return camera.NewSession(c.NewSource(logger), c.StreamConfig(), camera.WithLogger(logger))
}
