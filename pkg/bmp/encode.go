// Package bmp writes 24-bit uncompressed BMP (v3) files from packed RGB buffers.
package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
)

const DefaultFilePerm = 0644

var ErrInvalidSize = errors.New("bmp: invalid image size")

// RowError reports a failed or short write of one pixel row.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("bmp: write row %d: %s", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Encode writes pix as a BMP image to w.
//
// pix holds height rows of interleaved R, G, B bytes, each row starting
// stride bytes after the previous one. stride may exceed width*3 when the
// source buffer is aligned; the extra bytes are not written.
func Encode(w io.Writer, pix []byte, width, height, stride int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	rowLen := width * BytesPerPixel
	if stride < rowLen {
		return fmt.Errorf("%w: stride %d less than %d", ErrInvalidSize, stride, rowLen)
	}
	if need := stride*(height-1) + rowLen; len(pix) < need {
		return fmt.Errorf("%w: buffer has %d bytes, need %d", ErrInvalidSize, len(pix), need)
	}

	// unbuffered: a RowError names the row w rejected
	var hdr bytes.Buffer
	hdr.Grow(PixelOffset)
	fh, ih := NewHeaders(width, height)
	_ = binary.Write(&hdr, binary.LittleEndian, &fh)
	_ = binary.Write(&hdr, binary.LittleEndian, &ih)
	if n, err := w.Write(hdr.Bytes()); err != nil || n < hdr.Len() {
		if err == nil {
			err = io.ErrShortWrite
		}
		return fmt.Errorf("bmp: write header: %w", err)
	}

	// the tail of row stays zero and becomes the padding
	row := make([]byte, Pitch(width))
	for y := 0; y < height; y++ {
		src := pix[y*stride : y*stride+rowLen]
		for i := 0; i < rowLen; i += BytesPerPixel {
			row[i] = src[i+2]
			row[i+1] = src[i+1]
			row[i+2] = src[i]
		}
		n, err := w.Write(row)
		if err == nil && n < len(row) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return &RowError{Row: y, Err: err}
		}
	}

	return nil
}

// Save encodes pix into the file at path, truncating it if it exists.
func Save(path string, pix []byte, width, height, stride int) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err = Encode(f, pix, width, height, stride); err != nil {
		_ = f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}

// EncodeImage writes any image.Image as a 24-bit BMP, dropping alpha.
func EncodeImage(w io.Writer, img image.Image) error {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	pix := make([]byte, width*height*BytesPerPixel)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			pix[i] = byte(r >> 8)
			pix[i+1] = byte(g >> 8)
			pix[i+2] = byte(bl >> 8)
			i += BytesPerPixel
		}
	}

	return Encode(w, pix, width, height, width*BytesPerPixel)
}
