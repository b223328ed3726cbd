// Package frame adapts captured RGB24 buffers to image.Image and encodes them.
package frame

import (
	"image"
	"image/color"

	"stillcam/pkg/camera"
)

type RGB struct {
	// Pix holds the image's pixels, in R, G, B order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []byte
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

func (p *RGB) ColorModel() color.Model { return color.RGBAModel }

func (p *RGB) Bounds() image.Rectangle { return p.Rect }

func (p *RGB) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
	s := p.Pix[i : i+3 : i+3] // Small cap improves performance, see https://golang.org/issue/27857
	return color.RGBA{R: s[0], G: s[1], B: s[2], A: 0xFF}
}

func NewRGB(data []byte, width, height, stride int) *RGB {
	if stride == 0 {
		stride = width * 3
	}
	return &RGB{
		Pix:    data,
		Stride: stride,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// FromFrame wraps f without copying. f must be RGB24.
func FromFrame(f *camera.Frame) *RGB {
	return NewRGB(f.Data, f.Width, f.Height, f.Stride)
}

// ToRGBA copies the image into an *image.RGBA, which the standard encoders
// handle on their fast path.
func (p *RGB) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, p.Rect.Dx(), p.Rect.Dy()))
	w, h := p.Rect.Dx(), p.Rect.Dy()
	for y := 0; y < h; y++ {
		in := p.Pix[y*p.Stride:]
		o := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			o[x*4] = in[x*3]
			o[x*4+1] = in[x*3+1]
			o[x*4+2] = in[x*3+2]
			o[x*4+3] = 0xFF
		}
	}
	return out
}
