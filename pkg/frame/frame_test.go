package frame

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	xbmp "golang.org/x/image/bmp"

	"stillcam/pkg/camera"
)

func testFrame() *camera.Frame {
	w, h, stride := 5, 3, 16
	data := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copy(data[y*stride+x*3:], []byte{byte(40 * x), byte(80 * y), 200})
		}
	}
	return &camera.Frame{Format: camera.PixelFormatRGB24, Width: w, Height: h, Stride: stride, Data: data}
}

func TestRGBAt(t *testing.T) {
	img := FromFrame(testFrame())
	if got := img.At(2, 1); got != (color.RGBA{R: 80, G: 80, B: 200, A: 0xFF}) {
		t.Fatalf("At(2,1) = %v", got)
	}
	if got := img.At(5, 0); got != (color.RGBA{}) {
		t.Fatalf("out of bounds At = %v", got)
	}
	rgba := img.ToRGBA()
	if got := rgba.RGBAAt(4, 2); got != (color.RGBA{R: 160, G: 160, B: 200, A: 0xFF}) {
		t.Fatalf("RGBAAt(4,2) = %v", got)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatBMP, ".bmp": FormatBMP, "JPG": FormatJPEG, "jpeg": FormatJPEG, ".png": FormatPNG}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Error("expected error for gif")
	}
	if FormatOf("foobar.jpg") != FormatJPEG || FormatOf("foobar") != FormatBMP {
		t.Error("FormatOf")
	}
}

func TestEncode(t *testing.T) {
	f := testFrame()

	var buf bytes.Buffer
	if err := Encode(&buf, f, FormatBMP, 0); err != nil {
		t.Fatal(err)
	}
	img, err := xbmp.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := img.At(3, 0).RGBA(); r>>8 != 120 {
		t.Fatalf("bmp red = %d", r>>8)
	}

	buf.Reset()
	if err = Encode(&buf, f, FormatPNG, 0); err != nil {
		t.Fatal(err)
	}
	if img, err = png.Decode(&buf); err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 5 || img.Bounds().Dy() != 3 {
		t.Fatalf("png bounds %v", img.Bounds())
	}

	buf.Reset()
	if err = Encode(&buf, f, FormatJPEG, 90); err != nil {
		t.Fatal(err)
	}
	if _, err = jpeg.Decode(&buf); err != nil {
		t.Fatal(err)
	}

	f.Format = camera.PixelFormatYUYV
	if err = Encode(&buf, f, FormatBMP, 0); err == nil {
		t.Fatal("expected format error")
	}
}
