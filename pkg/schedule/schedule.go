// Package schedule captures a still into storage at a fixed interval.
package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"stillcam/pkg/camera"
	"stillcam/pkg/storage"
)

// Capturer is the part of camera.Session the scheduler needs.
type Capturer interface {
	Capture(ctx context.Context) (*camera.Frame, error)
	Info() camera.StreamInfo
}

type Scheduler struct {
	cam    Capturer
	stg    *storage.Storage
	logger *zap.SugaredLogger

	lock     sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	taken    int
}

func New(cam Capturer, stg *storage.Storage, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{cam: cam, stg: stg, logger: logger}
}

// Begin starts capturing every interval, replacing any running schedule.
func (s *Scheduler) Begin(ctx context.Context, interval time.Duration) {
	s.Stop()
	if interval <= 0 {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	newCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.interval = interval
	s.done = make(chan struct{})
	go s.run(newCtx, interval, s.done)
	s.logger.Infof("scheduler: capturing every %s", interval)
}

func (s *Scheduler) Stop() {
	s.lock.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.interval = 0
	s.lock.Unlock()

	if cancel != nil {
		cancel()
		<-done
		s.logger.Info("scheduler: stopped")
	}
}

func (s *Scheduler) Interval() time.Duration {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.interval
}

// Taken is the number of stills saved since New.
func (s *Scheduler) Taken() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.taken
}

func (s *Scheduler) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case start := <-t.C:
			s.deal(ctx, start)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) deal(ctx context.Context, start time.Time) {
	f, err := s.cam.Capture(ctx)
	if err != nil {
		s.logger.Errorf("scheduler: get frame error: %s", err)
		return
	}
	meta, err := s.stg.Save(f, s.cam.Info().Device)
	if err != nil {
		s.logger.Errorf("scheduler: save image err: %s", err)
		return
	}
	s.lock.Lock()
	s.taken++
	s.lock.Unlock()
	s.logger.Infof("scheduler: took %s to save %s", time.Since(start), meta.File)
}
