// Package v4l implements camera.Source on top of a V4L2 capture device.
package v4l

import (
	"errors"

	"go.uber.org/zap"
)

var ErrUnsupported = errors.New("v4l2 capture is only supported on linux")

type Option func(*Device)

// WithControls sets V4L2 controls (by control id) after every stream start.
func WithControls(ctrls map[uint32]int32) Option {
	return func(d *Device) {
		for k, v := range ctrls {
			d.controls[k] = v
		}
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(d *Device) {
		if logger != nil {
			d.logger = logger
		}
	}
}
