package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	xbmp "golang.org/x/image/bmp"
)

func testPix(width, height, stride int) []byte {
	pix := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*stride + x*3
			pix[i] = byte(x * 7)
			pix[i+1] = byte(y * 13)
			pix[i+2] = byte(x + y)
		}
		// garbage in the alignment tail must never reach the file
		for i := y*stride + width*3; i < (y+1)*stride; i++ {
			pix[i] = 0xAA
		}
	}
	return pix
}

func TestPitch(t *testing.T) {
	cases := []struct {
		width int
		pitch int
	}{
		{1, 4},
		{2, 8},
		{3, 12},
		{4, 12},
		{5, 16},
		{640, 1920},
		{641, 1924},
	}
	for _, c := range cases {
		if got := Pitch(c.width); got != c.pitch {
			t.Errorf("Pitch(%d) = %d, want %d", c.width, got, c.pitch)
		}
	}
}

func TestFileSize(t *testing.T) {
	if got := FileSize(4, 2); got != 78 {
		t.Fatalf("FileSize(4, 2) = %d, want 78", got)
	}

	for _, size := range [][2]int{{1, 1}, {3, 5}, {4, 2}, {7, 3}, {33, 17}} {
		w, h := size[0], size[1]
		var buf bytes.Buffer
		if err := Encode(&buf, testPix(w, h, w*3), w, h, w*3); err != nil {
			t.Fatal(err)
		}
		if buf.Len() != FileSize(w, h) {
			t.Errorf("%dx%d: encoded %d bytes, want %d", w, h, buf.Len(), FileSize(w, h))
		}
		if want := PixelOffset + h*Pitch(w); buf.Len() != want {
			t.Errorf("%dx%d: encoded %d bytes, want %d", w, h, buf.Len(), want)
		}
	}
}

func TestHeaders(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testPix(5, 3, 15), 5, 3, 15); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	if string(data[:2]) != "BM" {
		t.Fatalf("signature %q", data[:2])
	}
	le := binary.LittleEndian
	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"file size", int64(le.Uint32(data[2:6])), int64(FileSize(5, 3))},
		{"reserved", int64(le.Uint32(data[6:10])), 0},
		{"offset", int64(le.Uint32(data[10:14])), PixelOffset},
		{"info size", int64(le.Uint32(data[14:18])), InfoHeaderSize},
		{"width", int64(int32(le.Uint32(data[18:22]))), 5},
		{"height", int64(int32(le.Uint32(data[22:26]))), -3},
		{"planes", int64(le.Uint16(data[26:28])), 1},
		{"bpp", int64(le.Uint16(data[28:30])), 24},
		{"compression", int64(le.Uint32(data[30:34])), 0},
		{"image size", int64(le.Uint32(data[34:38])), int64(3 * Pitch(5))},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestPadding(t *testing.T) {
	for _, w := range []int{1, 2, 3, 5, 6, 7} {
		h := 3
		var buf bytes.Buffer
		if err := Encode(&buf, testPix(w, h, w*3+5), w, h, w*3+5); err != nil {
			t.Fatal(err)
		}
		body := buf.Bytes()[PixelOffset:]
		pitch := Pitch(w)
		for y := 0; y < h; y++ {
			pad := body[y*pitch+w*3 : (y+1)*pitch]
			if len(pad) != pitch-w*3 {
				t.Fatalf("width %d row %d: %d pad bytes, want %d", w, y, len(pad), pitch-w*3)
			}
			for _, b := range pad {
				if b != 0 {
					t.Fatalf("width %d row %d: non-zero pad %v", w, y, pad)
				}
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name                  string
		width, height, stride int
	}{
		{"packed", 4, 2, 12},
		{"odd width", 5, 4, 15},
		{"aligned stride", 7, 6, 32},
		{"single pixel", 1, 1, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pix := testPix(c.width, c.height, c.stride)
			var buf bytes.Buffer
			if err := Encode(&buf, pix, c.width, c.height, c.stride); err != nil {
				t.Fatal(err)
			}

			img, err := xbmp.Decode(&buf)
			if err != nil {
				t.Fatal(err)
			}
			if b := img.Bounds(); b.Dx() != c.width || b.Dy() != c.height {
				t.Fatalf("decoded bounds %v", b)
			}
			for y := 0; y < c.height; y++ {
				for x := 0; x < c.width; x++ {
					i := y*c.stride + x*3
					want := color.RGBA{R: pix[i], G: pix[i+1], B: pix[i+2], A: 0xFF}
					got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
					if got != want {
						t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestEncodeInvalid(t *testing.T) {
	cases := []struct {
		name                  string
		pix                   []byte
		width, height, stride int
	}{
		{"zero width", make([]byte, 12), 0, 2, 12},
		{"negative height", make([]byte, 12), 4, -1, 12},
		{"short stride", make([]byte, 24), 4, 2, 10},
		{"short buffer", make([]byte, 20), 4, 2, 12},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Encode(&bytes.Buffer{}, c.pix, c.width, c.height, c.stride)
			if !errors.Is(err, ErrInvalidSize) {
				t.Fatalf("err = %v, want ErrInvalidSize", err)
			}
		})
	}
}

type failWriter struct {
	limit int
	n     int
}

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		n := w.limit - w.n
		w.n = w.limit
		return n, errors.New("disk full")
	}
	w.n += len(p)
	return len(p), nil
}

func TestEncodeShortWrite(t *testing.T) {
	cases := []struct {
		name   string
		width  int
		height int
		limit  int
		row    int
	}{
		{"first row", 4, 2, PixelOffset, 0},
		{"first row wide", 1000, 4, PixelOffset, 0},
		{"partial second row", 4, 3, PixelOffset + 12 + 5, 1},
		{"last row", 1000, 4, PixelOffset + 3*3000, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Encode(&failWriter{limit: c.limit}, testPix(c.width, c.height, c.width*3), c.width, c.height, c.width*3)
			var rowErr *RowError
			if !errors.As(err, &rowErr) {
				t.Fatalf("err = %v, want *RowError", err)
			}
			if rowErr.Row != c.row {
				t.Fatalf("row = %d, want %d", rowErr.Row, c.row)
			}
			if !strings.Contains(err.Error(), fmt.Sprintf("row %d", c.row)) {
				t.Fatalf("error %q does not name the row", err)
			}
		})
	}
}

func TestEncodeHeaderWriteFails(t *testing.T) {
	err := Encode(&failWriter{limit: 10}, testPix(4, 2, 12), 4, 2, 12)
	if err == nil {
		t.Fatal("expected an error")
	}
	var rowErr *RowError
	if errors.As(err, &rowErr) {
		t.Fatalf("header failure reported as row %d", rowErr.Row)
	}
	if !strings.Contains(err.Error(), "header") {
		t.Fatalf("error %q does not name the header", err)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "foobar.bmp")
	if err := Save(p, testPix(4, 2, 12), 4, 2, 12); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 78 {
		t.Fatalf("file size %d, want 78", info.Size())
	}

	bad := filepath.Join(dir, "missing", "foobar.bmp")
	err = Save(bad, testPix(4, 2, 12), 4, 2, 12)
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
	if !strings.Contains(err.Error(), bad) {
		t.Fatalf("error %q does not name %s", err, bad)
	}
}

func TestEncodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(2, 1, color.RGBA{B: 200, G: 10, A: 255})

	var buf bytes.Buffer
	if err := EncodeImage(&buf, src); err != nil {
		t.Fatal(err)
	}
	img, err := xbmp.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("(0,0) = %v", got)
	}
	if got := color.RGBAModel.Convert(img.At(2, 1)).(color.RGBA); got != (color.RGBA{G: 10, B: 200, A: 255}) {
		t.Fatalf("(2,1) = %v", got)
	}
}
