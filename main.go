package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"stillcam/pkg/clock"
	"stillcam/pkg/config"
	"stillcam/pkg/schedule"
	"stillcam/pkg/server"
	"stillcam/pkg/storage"
	"stillcam/pkg/utils"
	"stillcam/pkg/webdav"
)

var (
	configPath = flag.String("config", "", "config file (yaml)")
	port       = flag.Int("port", 0, "ui port, overrides the config")
	webdavPort = flag.Int("webdav-port", 0, "webdav port, overrides the config")
	storageDir = flag.String("dir", "", "capture directory, overrides the config")
	source     = flag.String("source", "", "capture source: v4l2 or pattern")

	logger *zap.SugaredLogger
)

func init() {
	logger = utils.GetLogger()
	flag.Parse()
}

func main() {
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal(err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *webdavPort != 0 {
		cfg.Server.WebdavPort = *webdavPort
	}
	if *storageDir != "" {
		cfg.Storage.Dir = *storageDir
	}
	if *source != "" {
		cfg.Camera.Source = *source
	}
	if err = cfg.Validate(); err != nil {
		logger.Fatal(err)
	}
	if err = utils.SetLevel(cfg.Log.Level); err != nil {
		logger.Fatal(err)
	}

	var clk clock.Clock = clock.System{}
	if cfg.NTP.Server != "" {
		if off, err := clock.NewNTP(cfg.NTP.Server, cfg.NTP.Timeout); err != nil {
			logger.Warnf("ntp query failed, using the system clock: %s", err)
		} else {
			logger.Infof("clock offset from %s: %s", cfg.NTP.Server, off.Offset)
			clk = off
		}
	}

	stg, err := storage.New(cfg.Storage.Dir, clk)
	if err != nil {
		logger.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := cfg.NewSession(logger)
	if err = sess.Init(ctx); err != nil {
		logger.Fatal(err)
	}
	defer sess.Exit()

	dav := webdav.New(ctx, cfg.Server.WebdavPort, cfg.Storage.Dir, logger)
	defer dav.Stop()

	scheduler := schedule.New(sess, stg, logger)
	if cfg.Schedule.Interval > 0 {
		scheduler.Begin(ctx, cfg.Schedule.Interval)
		defer scheduler.Stop()
	}

	utils.ListenAndServe(server.New(sess, stg, dav, scheduler, logger).Router(), cfg.Server.Port)
}
