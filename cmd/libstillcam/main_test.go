package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stillcam/pkg/camera"
	"stillcam/pkg/camera/pattern"
)

func TestBeforeInit(t *testing.T) {
	if getStill(make([]byte, 24)) != -1 {
		t.Fatal("getStill before init should fail")
	}
	if width() != 0 || height() != 0 || frameSize() != 0 {
		t.Fatalf("size %dx%d before init", width(), height())
	}
	if err := saveToBMP(make([]byte, 24), filepath.Join(t.TempDir(), "x.bmp")); !errors.Is(err, errNotInit) {
		t.Fatalf("err = %v, want errNotInit", err)
	}
	if exitCamera() != 0 {
		t.Fatal("exit before init should be a no-op")
	}
}

func TestStillFromEnv(t *testing.T) {
	t.Setenv("STILLCAM_SOURCE", "pattern")
	t.Setenv("STILLCAM_WIDTH", "4")
	t.Setenv("STILLCAM_HEIGHT", "2")

	if rc := initFromEnv(); rc != 0 {
		t.Fatalf("init = %d", rc)
	}
	t.Cleanup(func() { exitCamera() })
	if rc := initFromEnv(); rc != 0 {
		t.Fatalf("second init = %d", rc)
	}
	if width() != 4 || height() != 2 || frameSize() != 24 {
		t.Fatalf("size %dx%d, frame %d", width(), height(), frameSize())
	}

	buf := make([]byte, frameSize())
	if rc := getStill(buf); rc != 0 {
		t.Fatalf("getStill = %d", rc)
	}
	// leftmost bar is white
	if buf[0] != 255 || buf[1] != 255 || buf[2] != 255 {
		t.Fatalf("first pixel % x", buf[:3])
	}
	if rc := getStill(make([]byte, 23)); rc != -1 {
		t.Fatalf("short buffer: getStill = %d", rc)
	}
	if rc := getStill(nil); rc != -1 {
		t.Fatalf("nil buffer: getStill = %d", rc)
	}

	p := filepath.Join(t.TempDir(), "foobar.bmp")
	if err := saveToBMP(buf, p); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 78 {
		t.Fatalf("file size %d, want 78", info.Size())
	}
	if err = saveToBMP(buf, filepath.Join(t.TempDir(), "missing", "foobar.bmp")); err == nil {
		t.Fatal("save into a missing directory should fail")
	}

	if exitCamera() != 0 {
		t.Fatal("exit failed")
	}
	if getStill(buf) != -1 || width() != 0 {
		t.Fatal("session still usable after exit")
	}
}

func TestStillWrongFormat(t *testing.T) {
	cfg := camera.DefaultStreamConfig()
	cfg.Width, cfg.Height, cfg.FPS = 4, 2, 100
	src := pattern.New().WithFormat(camera.PixelFormatYUYV)
	if rc := initSession(camera.NewSession(src, cfg)); rc != 0 {
		t.Fatalf("init = %d", rc)
	}
	t.Cleanup(func() { exitCamera() })

	if rc := getStill(make([]byte, frameSize())); rc != -1 {
		t.Fatalf("getStill = %d, want -1", rc)
	}
}

func TestInitFromBadEnv(t *testing.T) {
	t.Setenv("STILLCAM_SOURCE", "carrier-pigeon")
	if rc := initFromEnv(); rc != -1 {
		t.Fatalf("init = %d, want -1", rc)
	}
	if current() != nil {
		t.Fatal("failed init left a session behind")
	}
}
