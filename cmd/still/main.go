// still grabs one frame from the camera and writes it as a 24-bit BMP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"stillcam/pkg/bmp"
	"stillcam/pkg/camera"
	"stillcam/pkg/config"
	"stillcam/pkg/frame"
	"stillcam/pkg/storage"
	"stillcam/pkg/utils"
	"stillcam/pkg/video"
)

var (
	configPath = flag.String("config", "", "config file (yaml)")
	devName    = flag.String("d", "", "device name (path)")
	source     = flag.String("source", "", "capture source: v4l2 or pattern")
	width      = flag.Int("w", 0, "capture width")
	height     = flag.Int("h", 0, "capture height")
	output     = flag.String("o", "", "output file, the first argument wins")
	timeout    = flag.Duration("timeout", 0, "give up after this long (0 waits forever)")
	writeMeta  = flag.Bool("meta", false, "write a json sidecar next to the image")
	quality    = flag.Int("jpeg", frame.DefaultJPEGQuality, "jpeg quality for .jpg and .avi output")
	frames     = flag.Int("frames", 1, "number of frames, more than one needs an .avi output")

	logger *zap.SugaredLogger
)

func init() {
	logger = utils.GetLogger()
}

func main() {
	flag.Parse()
	defer logger.Sync()

	cfg, err := loadConfig(flag.Args())
	if err != nil {
		logger.Fatal(err)
	}
	out := cfg.Output

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}
	ctx, stop := utils.SignalContext(ctx)
	defer stop()

	sess := cfg.NewSession(logger)
	if err = sess.Init(ctx); err != nil {
		logger.Fatal(err)
	}
	defer sess.Exit()

	if isAVI(out) {
		err = burst(ctx, sess, out, cfg.Camera.FPS)
	} else {
		err = still(ctx, sess, out, sess.Info().Device)
	}
	if err != nil {
		logger.Error(err)
		_ = sess.Exit()
		os.Exit(1)
	}
}

func isAVI(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".avi")
}

// loadConfig merges the config file, flags and the optional positional
// output name, which wins over -o.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *devName != "" {
		cfg.Camera.Device = *devName
	}
	if *source != "" {
		cfg.Camera.Source = *source
	}
	if *width > 0 {
		cfg.Camera.Width = *width
	}
	if *height > 0 {
		cfg.Camera.Height = *height
	}
	if *output != "" {
		cfg.Output = *output
	}
	if len(args) > 0 {
		cfg.Output = args[0]
	}
	if *frames < 1 {
		return nil, fmt.Errorf("invalid frame count %d", *frames)
	}
	if *frames > 1 && !isAVI(cfg.Output) {
		return nil, fmt.Errorf("-frames %d needs an .avi output, got %s", *frames, cfg.Output)
	}
	if *quality < 1 || *quality > 100 {
		return nil, fmt.Errorf("invalid jpeg quality %d", *quality)
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	if err = utils.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}

	return cfg, nil
}

func still(ctx context.Context, sess *camera.Session, out, device string) error {
	w, h := sess.Width(), sess.Height()
	buf := make([]byte, sess.FrameSize())
	if err := sess.GetStill(ctx, buf); err != nil {
		fmt.Fprintln(os.Stderr, "Unable to get still image...")
		return err
	}

	f := &camera.Frame{
		Format: camera.PixelFormatRGB24,
		Width:  w,
		Height: h,
		Stride: w * bmp.BytesPerPixel,
		Data:   buf,
	}
	if err := save(out, f); err != nil {
		return err
	}

	st, err := os.Stat(out)
	if err != nil {
		return err
	}
	logger.Infof("saved %dx%d still to %s (%s)", w, h, out, humanize.Bytes(uint64(st.Size())))

	if *writeMeta {
		return storage.WriteMetadata(storage.MetadataPath(out), &storage.Metadata{
			File:       filepath.Base(out),
			Device:     device,
			Format:     f.Format.String(),
			Width:      w,
			Height:     h,
			Stride:     f.Stride,
			CapturedAt: time.Now(),
			Size:       st.Size(),
		})
	}

	return nil
}

func save(out string, f *camera.Frame) error {
	format := frame.FormatOf(out)
	if format == frame.FormatBMP {
		return bmp.Save(out, f.Data, f.Width, f.Height, f.Stride)
	}

	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer file.Close()
	if err = frame.Encode(file, f, format, *quality); err != nil {
		return fmt.Errorf("save %s: %w", out, err)
	}

	return file.Close()
}

func burst(ctx context.Context, sess *camera.Session, out string, fps int) error {
	if fps <= 0 {
		fps = camera.DefaultFPS
	}
	b, err := video.NewBuilder(out, sess.Width(), sess.Height(), fps, *quality)
	if err != nil {
		return err
	}
	for i := 0; i < *frames; i++ {
		f, err := sess.Capture(ctx)
		if err != nil {
			_ = b.Close()
			fmt.Fprintln(os.Stderr, "Unable to get still image...")
			return err
		}
		if err = b.Add(f); err != nil {
			_ = b.Close()
			return err
		}
	}
	if err = b.Close(); err != nil {
		return err
	}
	logger.Infof("saved %d frames to %s", b.GetCnt(), out)

	return nil
}
