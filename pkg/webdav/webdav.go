// Package webdav shares the capture directory over WebDAV on demand.
package webdav

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/webdav"
)

type Webdav struct {
	lock   sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	port   int
	dir    string
	logger *zap.SugaredLogger
}

func New(ctx context.Context, port int, dir string, logger *zap.SugaredLogger) *Webdav {
	return &Webdav{
		ctx:    ctx,
		port:   port,
		dir:    dir,
		logger: logger,
	}
}

// Start serves the directory read-write. It returns false if already running.
func (w *Webdav) Start() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.cancel != nil {
		return false
	}
	newCtx, cancel := context.WithCancel(w.ctx)
	w.cancel = cancel
	Serve(newCtx, w.port, Handler(w.dir, w.logger), w.logger)

	return true
}

// Stop shuts the share down. It returns false if it was not running.
func (w *Webdav) Stop() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.cancel == nil {
		return false
	}
	w.cancel()
	w.cancel = nil

	return true
}

func (w *Webdav) Running() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.cancel != nil
}

func (w *Webdav) Port() int {
	return w.port
}

func Handler(dir string, logger *zap.SugaredLogger) http.Handler {
	return &webdav.Handler{
		FileSystem: webdav.Dir(dir),
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				logger.Errorf("WEBDAV [%s]: %s, err: %s", r.Method, r.URL, err)
			}
		},
	}
}

// Serve runs h on port until ctx is done.
func Serve(ctx context.Context, port int, h http.Handler, logger *zap.SugaredLogger) {
	svr := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: h,
	}

	go func() {
		if err := svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("webdav server err: %s", err)
		}
	}()
	go func() {
		<-ctx.Done()
		srcCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svr.Shutdown(srcCtx); err != nil {
			logger.Errorf("shutdown webdav server err: %s", err)
		}
	}()
}
