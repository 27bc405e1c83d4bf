// Package main runs the combat game server: the world tick, the Telnet
// player listener, the gRPC health endpoint, the admin HTTP surface and the
// combat-state persistence worker.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/config"
	"github.com/cory-johannsen/fray/internal/gameserver"
	"github.com/cory-johannsen/fray/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, cleanup, err := gameserver.InitializeServer(ctx, cfg, reg)
	if err != nil {
		log.Fatalf("initializing server: %v", err)
	}
	defer cleanup()
	logger := srv.Logger
	defer func() { _ = logger.Sync() }()

	logger.Info("starting game server",
		zap.String("grpc_addr", cfg.GameServer.Addr()),
		zap.String("admin_addr", cfg.Admin.Addr()),
		zap.Bool("telnet", cfg.Telnet.Enabled),
		zap.Duration("tick_interval", cfg.GameServer.TickInterval),
		zap.Bool("persistence", srv.Persister.Enabled()),
	)

	lc := server.NewLifecycle(logger)
	lc.Add("persister", &server.FuncService{
		StartFn: srv.Persister.Start,
		StopFn:  srv.Persister.Stop,
	})

	tickCtx, stopTick := context.WithCancel(ctx)
	tickDone := make(chan struct{})
	lc.Add("tick", &server.FuncService{
		StartFn: func() error {
			srv.Tick.Start(tickCtx)
			<-tickDone
			return nil
		},
		StopFn: func() {
			stopTick()
			close(tickDone)
		},
	})

	if srv.Telnet != nil {
		lc.Add("telnet", &server.FuncService{
			StartFn: func() error { return srv.Telnet.Serve(ctx) },
			StopFn:  srv.Telnet.Stop,
		})
	}

	lc.Add("grpc-health", &server.FuncService{
		StartFn: srv.Health.Start,
		StopFn:  srv.Health.Stop,
	})

	admin := &http.Server{
		Addr:              cfg.Admin.Addr(),
		Handler:           srv.Admin,
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Add("admin-http", &server.FuncService{
		StartFn: func() error {
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = admin.Shutdown(shutdownCtx)
		},
	})

	lc.OnReady(func() { srv.Health.SetServing(true) })
	lc.OnStopping(func() { srv.Health.SetServing(false) })

	logger.Info("game server ready", zap.Duration("startup", time.Since(start)))
	if err := lc.Run(ctx); err != nil {
		logger.Error("game server exited with error", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}
