//go:build linux

package v4l

import (
	"fmt"

	"github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"

	"stillcam/pkg/camera"
)

// Probe opens devName without streaming and reports its current format, the
// frame sizes it advertises and its controls.
func Probe(devName string) (*ProbeResult, error) {
	dev, err := device.Open(devName)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", devName, err)
	}
	defer dev.Close()

	pix, err := dev.GetPixFormat()
	if err != nil {
		return nil, fmt.Errorf("get pix format: %w", err)
	}
	res := &ProbeResult{
		Device: devName,
		Current: FormatSize{
			Format:       camera.PixelFormat(pix.PixelFormat).String(),
			Width:        int(pix.Width),
			Height:       int(pix.Height),
			BytesPerLine: int(pix.BytesPerLine),
		},
	}

	sizes, err := v4l2.GetAllFormatFrameSizes(dev.Fd())
	if err != nil {
		return nil, fmt.Errorf("get frame sizes: %w", err)
	}
	for _, size := range sizes {
		f := camera.PixelFormat(size.PixelFormat)
		res.Sizes = append(res.Sizes, FrameSize{
			Format:    f.String(),
			MinWidth:  int(size.Size.MinWidth),
			MaxWidth:  int(size.Size.MaxWidth),
			MinHeight: int(size.Size.MinHeight),
			MaxHeight: int(size.Size.MaxHeight),
		})
		if f == camera.PixelFormatRGB24 {
			res.RGB24 = true
		}
	}

	// not every driver implements extended controls
	if ctrls, err := v4l2.QueryAllExtControls(dev.Fd()); err == nil {
		for _, ctrl := range ctrls {
			res.Controls = append(res.Controls, Control{
				ID:      uint32(ctrl.ID),
				Name:    ctrl.Name,
				Min:     int32(ctrl.Minimum),
				Max:     int32(ctrl.Maximum),
				Step:    int32(ctrl.Step),
				Default: int32(ctrl.Default),
				Value:   int32(ctrl.Value),
			})
		}
	}

	return res, nil
}
