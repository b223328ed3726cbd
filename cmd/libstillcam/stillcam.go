package main

import (
	"context"
	"errors"
	"sync"

	"stillcam/pkg/bmp"
	"stillcam/pkg/camera"
	"stillcam/pkg/config"
	"stillcam/pkg/utils"
)

var (
	lock   sync.Mutex
	sess   *camera.Session
	logger = utils.GetLogger()
)

var errNotInit = errors.New("camera not initialised")

func current() *camera.Session {
	lock.Lock()
	defer lock.Unlock()
	return sess
}

// initFromEnv builds the session from STILLCAM_* variables.
func initFromEnv() int {
	cfg, err := config.Load("")
	if err != nil {
		logger.Error(err)
		return -1
	}
	_ = utils.SetLevel(cfg.Log.Level)

	return initSession(cfg.NewSession(logger))
}

func initSession(s *camera.Session) int {
	lock.Lock()
	defer lock.Unlock()
	if sess != nil {
		logger.Warn("camera already initialised")
		return 0
	}
	if err := s.Init(context.Background()); err != nil {
		logger.Errorf("failed to start camera: %s", err)
		_ = s.Exit()
		return -1
	}
	sess = s

	return 0
}

func exitCamera() int {
	lock.Lock()
	defer lock.Unlock()
	if sess == nil {
		return 0
	}
	err := sess.Exit()
	sess = nil
	if err != nil {
		logger.Error(err)
		return -1
	}

	return 0
}

// frameSize is the number of bytes a still needs, 0 before init.
func frameSize() int {
	if s := current(); s != nil {
		return s.FrameSize()
	}
	return 0
}

func width() int {
	if s := current(); s != nil {
		return s.Width()
	}
	return 0
}

func height() int {
	if s := current(); s != nil {
		return s.Height()
	}
	return 0
}

func getStill(dst []byte) int {
	s := current()
	if s == nil {
		logger.Error(errNotInit)
		return -1
	}
	if err := s.GetStill(context.Background(), dst); err != nil {
		logger.Error(err)
		return -1
	}

	return 0
}

// saveToBMP writes a packed width*height*3 buffer as filled by getStill.
func saveToBMP(pix []byte, name string) error {
	s := current()
	if s == nil {
		return errNotInit
	}
	w, h := s.Width(), s.Height()

	return bmp.Save(name, pix, w, h, w*bmp.BytesPerPixel)
}

func main() {}
