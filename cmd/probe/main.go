// probe prints what a V4L2 device negotiates as indented JSON.
package main

import (
	"flag"
	"os"

	"github.com/goccy/go-json"

	"stillcam/pkg/camera"
	"stillcam/pkg/camera/v4l"
	"stillcam/pkg/utils"
)

func main() {
	logger := utils.GetLogger()
	defer logger.Sync()

	devName := camera.DefaultDevice
	flag.StringVar(&devName, "d", devName, "device name (path)")
	flag.Parse()

	res, err := v4l.Probe(devName)
	if err != nil {
		logger.Fatal(err)
	}
	if !res.RGB24 {
		logger.Warnf("%s does not advertise %s, still capture will fail", devName, camera.PixelFormatRGB24)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")
	if err = enc.Encode(res); err != nil {
		logger.Fatal(err)
	}
}
