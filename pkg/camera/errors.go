package camera

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotStarted  = errors.New("camera not started")
	StartedErr     = errors.New("already started")
	ErrQuit        = errors.New("capture quit before a frame completed")
	ErrShortBuffer = errors.New("buffer too small for frame")
	ErrPixelFormat = errors.New("unexpected pixel format")
)

// FormatError is returned when a completed frame is not in the expected layout.
type FormatError struct {
	Got  PixelFormat
	Want PixelFormat
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unexpected pixel format %s, want %s", e.Got, e.Want)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrPixelFormat
}

func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "busy") || strings.Contains(s, "ebusy")
}
