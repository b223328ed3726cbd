// Package camera drives a capture Source to produce single RGB still frames.
package camera

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"stillcam/pkg/utils"
)

const (
	restartAttempts = 5
	restartBackoff  = 150 * time.Millisecond
)

// Session owns one Source and turns its stream into still captures.
//
// Init starts the stream, GetStill blocks for the next completed request and
// Exit stops the stream. A timeout from the source restarts the stream and
// the wait continues; there is no limit on the number of restarts.
type Session struct {
	mu sync.Mutex

	src    Source
	cfg    StreamConfig
	logger *zap.SugaredLogger

	// streams outlive a single GetStill, so restarts use the Init context
	streamCtx context.Context
	info      StreamInfo
	started   bool
	restarts  int

	restartBackoff time.Duration
}

type Option func(*Session)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func withRestartBackoff(d time.Duration) Option {
	return func(s *Session) {
		s.restartBackoff = d
	}
}

func NewSession(src Source, cfg StreamConfig, opts ...Option) *Session {
	if cfg.Format == 0 {
		cfg.Format = PixelFormatRGB24
	}
	s := &Session{
		src:            src,
		cfg:            cfg,
		logger:         utils.GetLogger(),
		restartBackoff: restartBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Init opens and starts the stream. A session whose Init failed must not be
// used again.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return StartedErr
	}

	info, err := s.src.Start(ctx, s.cfg)
	if err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	s.streamCtx = ctx
	s.info = info
	s.started = true
	s.logger.Infof("camera started in %d*%d %s, stride %d", info.Width, info.Height, info.Format, info.Stride)

	return nil
}

// Exit stops the stream and releases the source. Calling it twice is a no-op.
func (s *Session) Exit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	stopErr := s.src.Stop()
	closeErr := s.src.Close()
	if stopErr != nil {
		return stopErr
	}

	return closeErr
}

func (s *Session) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info.Width
}

func (s *Session) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info.Height
}

func (s *Session) Info() StreamInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Restarts returns how many times a timeout restarted the stream.
func (s *Session) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

// FrameSize is the number of bytes GetStill writes: width*height*3.
func (s *Session) FrameSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info.Width * s.info.Height * 3
}

// GetStill waits for the next completed frame and copies it into buf with
// rows packed to width*3 bytes.
func (s *Session) GetStill(ctx context.Context, buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.waitFrame(ctx)
	if err != nil {
		return err
	}

	return copyPacked(buf, f)
}

// Capture is GetStill into a newly allocated frame.
func (s *Session) Capture(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.waitFrame(ctx)
	if err != nil {
		return nil, err
	}
	out := &Frame{
		Format:    f.Format,
		Width:     f.Width,
		Height:    f.Height,
		Stride:    f.Width * 3,
		Sequence:  f.Sequence,
		Timestamp: f.Timestamp,
		Data:      make([]byte, f.Width*f.Height*3),
	}
	if err = copyPacked(out.Data, f); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Session) waitFrame(ctx context.Context) (*Frame, error) {
	if !s.started {
		return nil, ErrNotStarted
	}

	for {
		msg := s.src.Wait(ctx)
		switch msg.Type {
		case MsgTimeout:
			s.logger.Warn("device timeout detected, attempting a restart")
			if err := s.restart(ctx); err != nil {
				return nil, err
			}
			continue
		case MsgQuit:
			s.logger.Info("capture quit")
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrQuit, err)
			}
			return nil, ErrQuit
		case MsgRequestComplete:
		default:
			return nil, fmt.Errorf("unrecognised message %s", msg.Type)
		}

		f := msg.Frame
		if f == nil {
			return nil, fmt.Errorf("%s without a frame", msg.Type)
		}
		if f.Format != s.cfg.Format {
			err := &FormatError{Got: f.Format, Want: s.cfg.Format}
			s.logger.Error(err)
			return nil, err
		}
		s.logger.Debugf("still capture image received, sequence %d", f.Sequence)

		return f, nil
	}
}

// restart stops and starts the stream again. Drivers may report EBUSY for a
// moment after release, so busy errors are retried.
func (s *Session) restart(ctx context.Context) error {
	if err := s.src.Stop(); err != nil {
		s.logger.Warnf("stop stream before restart: %s", err)
	}

	var (
		info StreamInfo
		err  error
	)
	for i := 0; i < restartAttempts; i++ {
		info, err = s.src.Start(s.streamCtx, s.cfg)
		if err == nil {
			s.info = info
			s.restarts++
			return nil
		}
		if !isBusyErr(err) {
			break
		}
		s.logger.Warnf("failed to restart stream will retry %d/%d: %v", i+1, restartAttempts, err)
		select {
		case <-ctx.Done():
			s.started = false
			return ctx.Err()
		case <-time.After(s.restartBackoff):
		}
	}
	s.started = false

	return fmt.Errorf("restart stream: %w", err)
}

func copyPacked(dst []byte, f *Frame) error {
	rowLen := f.Width * 3
	if len(dst) < rowLen*f.Height {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(dst), rowLen*f.Height)
	}
	stride := f.Stride
	if stride == 0 {
		stride = rowLen
	}
	if stride < rowLen || len(f.Data) < stride*(f.Height-1)+rowLen {
		return fmt.Errorf("frame data has %d bytes for %dx%d stride %d", len(f.Data), f.Width, f.Height, stride)
	}
	for y := 0; y < f.Height; y++ {
		copy(dst[y*rowLen:(y+1)*rowLen], f.Data[y*stride:y*stride+rowLen])
	}

	return nil
}
