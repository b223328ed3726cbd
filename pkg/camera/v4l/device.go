//go:build linux

package v4l

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"
	"go.uber.org/zap"

	"stillcam/pkg/camera"
	"stillcam/pkg/utils"
)

// Device streams from a V4L2 node such as /dev/video0. The node is opened on
// Start and closed on Stop, so a restart renegotiates the format.
type Device struct {
	devName  string
	controls map[uint32]int32
	logger   *zap.SugaredLogger

	lock    sync.Mutex
	cancel  context.CancelFunc
	camera  *device.Device
	output  <-chan []byte
	timeout time.Duration
	info    camera.StreamInfo
	seq     uint32
}

var _ camera.Source = (*Device)(nil)

func New(devName string, opts ...Option) *Device {
	d := &Device{
		devName:  devName,
		controls: make(map[uint32]int32),
		logger:   utils.GetLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Device) open(cfg camera.StreamConfig) error {
	if d.camera != nil {
		return camera.StartedErr
	}
	opts := []device.Option{
		device.WithPixFormat(v4l2.PixFormat{
			PixelFormat: v4l2.FourCCType(cfg.Format),
			Width:       uint32(cfg.Width),
			Height:      uint32(cfg.Height),
			Field:       v4l2.FieldNone,
		}),
	}
	if cfg.Buffers > 0 {
		opts = append(opts, device.WithBufferSize(uint32(cfg.Buffers)))
	}
	if cfg.FPS > 0 {
		opts = append(opts, device.WithFPS(uint32(cfg.FPS)))
	}
	dev, err := device.Open(d.devName, opts...)
	if err != nil {
		return fmt.Errorf("open %s: %w", d.devName, err)
	}
	d.camera = dev

	return nil
}

func (d *Device) Start(ctx context.Context, cfg camera.StreamConfig) (camera.StreamInfo, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.logger.Infof("start camera %s in %d*%d %s", d.devName, cfg.Width, cfg.Height, cfg.Format)
	if err := d.open(cfg); err != nil {
		return camera.StreamInfo{}, err
	}

	newCtx, cancel := context.WithCancel(ctx)
	if err := d.camera.Start(newCtx); err != nil {
		cancel()
		_ = d.camera.Close()
		d.camera = nil
		return camera.StreamInfo{}, fmt.Errorf("start %s: %w", d.devName, err)
	}
	d.cancel = cancel

	pix, err := d.camera.GetPixFormat()
	if err != nil {
		d.stop()
		return camera.StreamInfo{}, fmt.Errorf("get pix format: %w", err)
	}
	d.info = camera.StreamInfo{
		Device: d.devName,
		Format: camera.PixelFormat(pix.PixelFormat),
		Width:  int(pix.Width),
		Height: int(pix.Height),
		Stride: int(pix.BytesPerLine),
	}
	if d.info.Stride == 0 {
		d.info.Stride = d.info.Width * 3
	}
	d.timeout = cfg.WaitTimeout
	if d.timeout <= 0 {
		d.timeout = camera.DefaultWaitTimeout
	}
	d.output = d.camera.GetOutput()
	d.seq = 0
	d.applyControls()

	return d.info, nil
}

// Wait returns the next frame, MsgTimeout when none arrives within the
// configured timeout, or MsgQuit when ctx ends or the stream closes.
func (d *Device) Wait(ctx context.Context) camera.Msg {
	d.lock.Lock()
	output, timeout, info := d.output, d.timeout, d.info
	d.lock.Unlock()
	if output == nil {
		return camera.Msg{Type: camera.MsgQuit}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return camera.Msg{Type: camera.MsgQuit}
	case <-timer.C:
		return camera.Msg{Type: camera.MsgTimeout}
	case data, ok := <-output:
		if !ok {
			return camera.Msg{Type: camera.MsgQuit}
		}
		d.lock.Lock()
		d.seq++
		seq := d.seq
		d.lock.Unlock()
		// data is the driver's buffer; the session copies it before the next wait
		return camera.Msg{Type: camera.MsgRequestComplete, Frame: &camera.Frame{
			Format:    info.Format,
			Width:     info.Width,
			Height:    info.Height,
			Stride:    info.Stride,
			Sequence:  seq,
			Timestamp: time.Now(),
			Data:      data,
		}}
	}
}

func (d *Device) Stop() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.stop()
}

func (d *Device) stop() error {
	if d.cancel != nil {
		// let the streaming goroutine see ctx.Done and stop the device before Close
		d.cancel()
		time.Sleep(100 * time.Millisecond)
		d.cancel = nil
	}
	d.output = nil
	if d.camera != nil {
		err := d.camera.Close()
		d.camera = nil
		return err
	}
	return nil
}

func (d *Device) Close() error {
	return d.Stop()
}

func (d *Device) applyControls() {
	for k, v := range d.controls {
		if err := d.camera.SetControlValue(v4l2.CtrlID(k), v4l2.CtrlValue(v)); err != nil {
			d.logger.Warnf("set ctrl(%d) to %d, err: %s", k, v, err)
		}
	}
}
