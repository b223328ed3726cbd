// Package server exposes a capture session over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vincent-vinf/go-jsend"
	"go.uber.org/zap"

	"stillcam/pkg/camera"
	"stillcam/pkg/frame"
	"stillcam/pkg/schedule"
	"stillcam/pkg/storage"
	"stillcam/pkg/utils"
	"stillcam/pkg/utils/ps"
	"stillcam/pkg/webdav"
)

const (
	webDavStart    = "start"
	webDavShutdown = "shutdown"

	captureTimeout = 30 * time.Second
	previewQuality = 80
)

// Camera is the part of camera.Session the server uses.
type Camera interface {
	schedule.Capturer
	Restarts() int
}

type Server struct {
	cam       Camera
	stg       *storage.Storage
	dav       *webdav.Webdav
	scheduler *schedule.Scheduler
	logger    *zap.SugaredLogger
}

func New(cam Camera, stg *storage.Storage, dav *webdav.Webdav, scheduler *schedule.Scheduler, logger *zap.SugaredLogger) *Server {
	return &Server{cam: cam, stg: stg, dav: dav, scheduler: scheduler, logger: logger}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(utils.Cors())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, jsend.SimpleErr("page not found"))
	})

	apiRouter := r.Group("/api")
	apiRouter.GET("/camera", s.getCamera)
	apiRouter.GET("/still", s.getStill)
	apiRouter.GET("/preview", s.preview)

	captureRouter := apiRouter.Group("/captures")
	captureRouter.GET("", s.listCaptures)
	captureRouter.POST("", s.createCapture)
	captureRouter.GET("/latest", s.latestCapture)
	captureRouter.GET("/:name", s.getCapture)
	captureRouter.GET("/:name/meta", s.getCaptureMeta)

	deviceRouter := apiRouter.Group("/device")
	deviceRouter.GET("/status", s.deviceStatus)
	deviceRouter.PUT("/webdav", s.ctlWebdav)

	return r
}

type cameraInfo struct {
	camera.StreamInfo
	Format   string `json:"format"`
	Restarts int    `json:"restarts"`
	Interval string `json:"interval,omitempty"`
}

func (s *Server) getCamera(c *gin.Context) {
	info := s.cam.Info()
	res := cameraInfo{
		StreamInfo: info,
		Format:     info.Format.String(),
		Restarts:   s.cam.Restarts(),
	}
	if s.scheduler != nil && s.scheduler.Interval() > 0 {
		res.Interval = s.scheduler.Interval().String()
	}

	c.JSON(http.StatusOK, jsend.Success(res))
}

func (s *Server) getStill(c *gin.Context) {
	format, err := frame.ParseFormat(c.DefaultQuery("format", string(frame.FormatBMP)))
	if err != nil {
		c.JSON(http.StatusBadRequest, jsend.SimpleErr(err.Error()))
		return
	}
	quality, ok := queryInt(c, "quality", frame.DefaultJPEGQuality, 1, 100)
	if !ok {
		return
	}

	f, ok := s.capture(c)
	if !ok {
		return
	}
	c.Header("Content-Type", format.ContentType())
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err = frame.Encode(c.Writer, f, format, quality); err != nil {
		s.logger.Errorf("failed to write still: %s", err)
	}
}

// preview streams JPEG frames as multipart/x-mixed-replace until the client
// goes away or the optional frame limit is reached.
func (s *Server) preview(c *gin.Context) {
	quality, ok := queryInt(c, "quality", previewQuality, 1, 100)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "frames", 0, 0, math.MaxInt32)
	if !ok {
		return
	}

	mimeWriter := multipart.NewWriter(c.Writer)
	c.Header("Content-Type", fmt.Sprintf("multipart/x-mixed-replace; boundary=%s", mimeWriter.Boundary()))
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	partHeader := make(textproto.MIMEHeader)
	partHeader.Add("Content-Type", frame.FormatJPEG.ContentType())

	ctx := c.Request.Context()
	var buf bytes.Buffer
	for n := 0; limit == 0 || n < limit; n++ {
		f, err := s.cam.Capture(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Errorf("preview capture: %s", err)
			}
			return
		}
		buf.Reset()
		if err = frame.Encode(&buf, f, frame.FormatJPEG, quality); err != nil {
			s.logger.Errorf("preview encode: %s", err)
			return
		}
		partWriter, err := mimeWriter.CreatePart(partHeader)
		if err != nil {
			s.logger.Errorf("failed to create multi-part writer: %s", err)
			return
		}
		if _, err = partWriter.Write(buf.Bytes()); err != nil {
			s.logger.Errorf("failed to write image: %s", err)
			return
		}
		c.Writer.Flush()
	}
	_ = mimeWriter.Close()
}

func (s *Server) createCapture(c *gin.Context) {
	f, ok := s.capture(c)
	if !ok {
		return
	}
	meta, err := s.stg.Save(f, s.cam.Info().Device)
	if err != nil {
		internalErr(c, err)
		return
	}

	c.JSON(http.StatusOK, jsend.Success(meta))
}

func (s *Server) listCaptures(c *gin.Context) {
	files, err := s.stg.List()
	if err != nil {
		internalErr(c, err)
		return
	}

	c.JSON(http.StatusOK, jsend.Success(files))
}

func (s *Server) latestCapture(c *gin.Context) {
	name, err := s.stg.LatestImageName()
	if err != nil {
		storageErr(c, err)
		return
	}
	meta, err := s.stg.Metadata(name)
	if err != nil {
		storageErr(c, err)
		return
	}

	c.JSON(http.StatusOK, jsend.Success(meta))
}

func (s *Server) getCapture(c *gin.Context) {
	p, err := s.stg.Path(c.Param("name"))
	if err != nil {
		storageErr(c, err)
		return
	}

	c.Header("Content-Type", frame.FormatBMP.ContentType())
	c.File(p)
}

func (s *Server) getCaptureMeta(c *gin.Context) {
	meta, err := s.stg.Metadata(c.Param("name"))
	if err != nil {
		storageErr(c, err)
		return
	}

	c.JSON(http.StatusOK, jsend.Success(meta))
}

func (s *Server) deviceStatus(c *gin.Context) {
	st, err := ps.GetStatus(s.stg.Dir())
	if err != nil {
		internalErr(c, err)
		return
	}

	c.JSON(http.StatusOK, jsend.Success(st))
}

func (s *Server) ctlWebdav(c *gin.Context) {
	if s.dav == nil {
		c.JSON(http.StatusNotFound, jsend.SimpleErr("webdav is disabled"))
		return
	}
	op := c.Query("op")
	switch op {
	case webDavStart:
		if !s.dav.Start() {
			c.JSON(http.StatusOK, jsend.Success("the webdav service is already enabled"))
			return
		}
		c.JSON(http.StatusOK, jsend.Success(fmt.Sprintf("webdav listening on :%d", s.dav.Port())))
	case webDavShutdown:
		if !s.dav.Stop() {
			c.JSON(http.StatusOK, jsend.SimpleErr("the webdav service has been shut down"))
			return
		}
		c.JSON(http.StatusOK, jsend.Success(nil))
	default:
		c.JSON(http.StatusBadRequest, jsend.SimpleErr("unknown operation"))
	}
}

func (s *Server) capture(c *gin.Context) (*camera.Frame, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), captureTimeout)
	defer cancel()

	f, err := s.cam.Capture(ctx)
	switch {
	case err == nil:
		return f, true
	case errors.Is(err, camera.ErrNotStarted), errors.Is(err, camera.ErrQuit):
		c.JSON(http.StatusServiceUnavailable, jsend.SimpleErr(err.Error()))
	default:
		internalErr(c, err)
	}

	return nil, false
}

// queryInt reads an optional integer query parameter in [lo, hi],
// answering 400 itself when it is malformed.
func queryInt(c *gin.Context, key string, def, lo, hi int) (int, bool) {
	q := c.Query(key)
	if q == "" {
		return def, true
	}
	v, err := strconv.Atoi(q)
	if err != nil || v < lo || v > hi {
		c.JSON(http.StatusBadRequest, jsend.SimpleErr(fmt.Sprintf("invalid %s %q", key, q)))
		return 0, false
	}

	return v, true
}

func storageErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, jsend.SimpleErr(err.Error()))
	case errors.Is(err, storage.ErrInvalidName):
		c.JSON(http.StatusBadRequest, jsend.SimpleErr(err.Error()))
	default:
		internalErr(c, err)
	}
}

func internalErr(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, jsend.SimpleErr(err.Error()))
}
