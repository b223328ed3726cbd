// Package video collects captured stills into an MJPEG AVI.
package video

import (
	"bytes"

	"github.com/icza/mjpeg"

	"stillcam/pkg/camera"
	"stillcam/pkg/frame"
)

type Builder struct {
	width   int
	height  int
	fps     int
	quality int

	cnt int
	buf bytes.Buffer
	aw  mjpeg.AviWriter
}

func NewBuilder(path string, width, height, fps, quality int) (*Builder, error) {
	aw, err := mjpeg.New(path, int32(width), int32(height), int32(fps))
	if err != nil {
		return nil, err
	}

	return &Builder{
		width:   width,
		height:  height,
		fps:     fps,
		quality: quality,
		aw:      aw,
	}, nil
}

// Add JPEG-encodes an RGB24 frame and appends it.
func (b *Builder) Add(f *camera.Frame) error {
	b.buf.Reset()
	if err := frame.Encode(&b.buf, f, frame.FormatJPEG, b.quality); err != nil {
		return err
	}
	if err := b.aw.AddFrame(b.buf.Bytes()); err != nil {
		return err
	}
	b.cnt++

	return nil
}

func (b *Builder) Close() error {
	return b.aw.Close()
}

func (b *Builder) GetCnt() int {
	return b.cnt
}
