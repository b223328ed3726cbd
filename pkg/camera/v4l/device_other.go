//go:build !linux

package v4l

import (
	"context"

	"go.uber.org/zap"

	"stillcam/pkg/camera"
	"stillcam/pkg/utils"
)

type Device struct {
	devName  string
	controls map[uint32]int32
	logger   *zap.SugaredLogger
}

func New(devName string, opts ...Option) *Device {
	d := &Device{devName: devName, controls: make(map[uint32]int32), logger: utils.GetLogger()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) Start(context.Context, camera.StreamConfig) (camera.StreamInfo, error) {
	return camera.StreamInfo{}, ErrUnsupported
}

func (d *Device) Wait(context.Context) camera.Msg {
	return camera.Msg{Type: camera.MsgQuit}
}

func (d *Device) Stop() error  { return nil }
func (d *Device) Close() error { return nil }

func Probe(string) (*ProbeResult, error) {
	return nil, ErrUnsupported
}
