package camera

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultDevice      = "/dev/video0"
	DefaultWidth       = 640
	DefaultHeight      = 480
	DefaultFPS         = 15
	DefaultBuffers     = 2
	DefaultWaitTimeout = 5 * time.Second
)

// PixelFormat is a V4L2 fourcc code.
type PixelFormat uint32

func FourCC(a, b, c, d byte) PixelFormat {
	return PixelFormat(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

var (
	PixelFormatRGB24 = FourCC('R', 'G', 'B', '3')
	PixelFormatBGR24 = FourCC('B', 'G', 'R', '3')
	PixelFormatYUYV  = FourCC('Y', 'U', 'Y', 'V')
	PixelFormatMJPEG = FourCC('M', 'J', 'P', 'G')
	PixelFormatJPEG  = FourCC('J', 'P', 'E', 'G')
)

func (f PixelFormat) String() string {
	b := []byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(f))
		}
	}
	return string(b)
}

type MsgType int

const (
	MsgRequestComplete MsgType = iota
	MsgTimeout
	MsgQuit
)

func (t MsgType) String() string {
	switch t {
	case MsgRequestComplete:
		return "request-complete"
	case MsgTimeout:
		return "timeout"
	case MsgQuit:
		return "quit"
	default:
		return fmt.Sprintf("MsgType(%d)", int(t))
	}
}

// Msg is the outcome of a single Source.Wait. Frame is set only for
// MsgRequestComplete.
type Msg struct {
	Type  MsgType
	Frame *Frame
}

// Frame is one completed capture. Data holds rows of interleaved pixels,
// each starting Stride bytes after the previous one.
type Frame struct {
	Format    PixelFormat
	Width     int
	Height    int
	Stride    int
	Sequence  uint32
	Timestamp time.Time
	Data      []byte
}

// StreamConfig is what a Source is asked to deliver.
type StreamConfig struct {
	Width       int
	Height      int
	FPS         int
	Buffers     int
	Format      PixelFormat
	WaitTimeout time.Duration
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		FPS:         DefaultFPS,
		Buffers:     DefaultBuffers,
		Format:      PixelFormatRGB24,
		WaitTimeout: DefaultWaitTimeout,
	}
}

// StreamInfo is the format a Source actually negotiated.
type StreamInfo struct {
	Device string      `json:"device"`
	Format PixelFormat `json:"-"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Stride int         `json:"stride"`
}

// Source is a camera stack that can stream frames.
//
// Wait blocks until a frame completes, the source gives up waiting
// (MsgTimeout) or the stream ends (MsgQuit). Sources are driven by a single
// Session and need not be safe for concurrent use.
type Source interface {
	Start(ctx context.Context, cfg StreamConfig) (StreamInfo, error)
	Wait(ctx context.Context) Msg
	Stop() error
	Close() error
}
