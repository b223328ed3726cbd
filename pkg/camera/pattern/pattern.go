// Package pattern is a camera.Source that renders colour bars instead of
// reading a device. Rows are padded to 32 bytes like many ISP outputs.
package pattern

import (
	"context"
	"sync"
	"time"

	"stillcam/pkg/camera"
)

const strideAlign = 32

var bars = [8][3]byte{
	{255, 255, 255},
	{255, 255, 0},
	{0, 255, 255},
	{0, 255, 0},
	{255, 0, 255},
	{255, 0, 0},
	{0, 0, 255},
	{0, 0, 0},
}

type Source struct {
	format camera.PixelFormat

	lock    sync.Mutex
	started bool
	cfg     camera.StreamConfig
	info    camera.StreamInfo
	ticker  *time.Ticker
	seq     uint32
	frame   []byte
}

var _ camera.Source = (*Source)(nil)

func New() *Source {
	return &Source{}
}

// WithFormat makes the source report f instead of the requested format,
// for exercising format negotiation failures.
func (s *Source) WithFormat(f camera.PixelFormat) *Source {
	s.format = f
	return s
}

func (s *Source) Start(_ context.Context, cfg camera.StreamConfig) (camera.StreamInfo, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.started {
		return camera.StreamInfo{}, camera.StartedErr
	}

	format := cfg.Format
	if s.format != 0 {
		format = s.format
	}
	stride := (cfg.Width*3 + strideAlign - 1) / strideAlign * strideAlign
	s.cfg = cfg
	s.info = camera.StreamInfo{Device: "pattern", Format: format, Width: cfg.Width, Height: cfg.Height, Stride: stride}
	s.frame = Render(cfg.Width, cfg.Height, stride)
	fps := cfg.FPS
	if fps <= 0 {
		fps = camera.DefaultFPS
	}
	s.ticker = time.NewTicker(time.Second / time.Duration(fps))
	s.seq = 0
	s.started = true

	return s.info, nil
}

func (s *Source) Wait(ctx context.Context) camera.Msg {
	s.lock.Lock()
	if !s.started {
		s.lock.Unlock()
		return camera.Msg{Type: camera.MsgQuit}
	}
	ticker, info := s.ticker, s.info
	s.lock.Unlock()

	select {
	case <-ctx.Done():
		return camera.Msg{Type: camera.MsgQuit}
	case now := <-ticker.C:
		s.lock.Lock()
		s.seq++
		f := &camera.Frame{
			Format:    info.Format,
			Width:     info.Width,
			Height:    info.Height,
			Stride:    info.Stride,
			Sequence:  s.seq,
			Timestamp: now,
			Data:      s.frame,
		}
		s.lock.Unlock()
		return camera.Msg{Type: camera.MsgRequestComplete, Frame: f}
	}
}

func (s *Source) Stop() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.started = false
	return nil
}

func (s *Source) Close() error {
	return s.Stop()
}

// Render draws eight vertical bars into a width x height RGB24 buffer.
func Render(width, height, stride int) []byte {
	data := make([]byte, stride*height)
	for x := 0; x < width; x++ {
		c := bars[x*len(bars)/width]
		for y := 0; y < height; y++ {
			copy(data[y*stride+x*3:], c[:])
		}
	}
	return data
}
