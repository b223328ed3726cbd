//go:build linux && cgo

// libstillcam is built with -buildmode=c-shared and exposes one process-wide
// capture session to C callers. Settings come from STILLCAM_* variables.
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"unsafe"
)

//export camera_init
func camera_init() C.int {
	return C.int(initFromEnv())
}

//export camera_exit
func camera_exit() C.int {
	return C.int(exitCamera())
}

// camera_get_still fills buf, which must hold width*height*3 bytes.
//
//export camera_get_still
func camera_get_still(buf *C.uint8_t) C.int {
	n := frameSize()
	if buf == nil || n == 0 {
		return C.int(getStill(nil))
	}
	return C.int(getStill(unsafe.Slice((*byte)(unsafe.Pointer(buf)), n)))
}

//export camera_get_width
func camera_get_width() C.uint {
	return C.uint(width())
}

//export camera_get_height
func camera_get_height() C.uint {
	return C.uint(height())
}

// camera_save_to_bmp writes a packed width*height*3 RGB buffer, as filled by
// camera_get_still, to filename. There is no return code: failures are
// logged at error level and the file may be missing or incomplete.
//
//export camera_save_to_bmp
func camera_save_to_bmp(mem *C.uint8_t, filename *C.char) {
	n := frameSize()
	if mem == nil || filename == nil || n == 0 {
		logger.Error("save bmp: camera not initialised or nil argument")
		return
	}
	pix := unsafe.Slice((*byte)(unsafe.Pointer(mem)), n)
	if err := saveToBMP(pix, C.GoString(filename)); err != nil {
		logger.Error(err)
	}
}
