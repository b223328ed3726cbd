package frame

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"stillcam/pkg/bmp"
	"stillcam/pkg/camera"
)

const DefaultJPEGQuality = 95

type Format string

const (
	FormatBMP  Format = "bmp"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "bmp":
		return FormatBMP, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unknown image format %q", s)
}

// FormatOf picks the output format from a file name, defaulting to BMP.
func FormatOf(name string) Format {
	f, err := ParseFormat(filepath.Ext(name))
	if err != nil {
		return FormatBMP
	}
	return f
}

func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	default:
		return "image/bmp"
	}
}

// Encode writes an RGB24 frame in the given format.
func Encode(w io.Writer, f *camera.Frame, format Format, quality int) error {
	if f.Format != camera.PixelFormatRGB24 {
		return &camera.FormatError{Got: f.Format, Want: camera.PixelFormatRGB24}
	}
	switch format {
	case FormatBMP:
		return bmp.Encode(w, f.Data, f.Width, f.Height, f.Stride)
	case FormatJPEG:
		return EncodeJPEG(FromFrame(f), w, quality)
	case FormatPNG:
		return png.Encode(w, FromFrame(f).ToRGBA())
	}
	return fmt.Errorf("unknown image format %q", format)
}

func EncodeJPEG(img *RGB, dst io.Writer, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return jpeg.Encode(dst, img.ToRGBA(), &jpeg.Options{Quality: quality})
}
