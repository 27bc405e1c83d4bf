// Package server runs the game server's long-lived services and tears them
// down in reverse order on a signal, a cancelled context, or the first
// service failure.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultStopTimeout bounds how long a single service may take to stop.
const DefaultStopTimeout = 10 * time.Second

// Service is a long-running component.
type Service interface {
	// Start blocks until the service stops or fails.
	Start() error
	// Stop makes a blocked Start return.
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
// A nil StopFn is a no-op.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn when set.
func (f *FuncService) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

// Lifecycle starts services concurrently and stops them in reverse order of
// registration.
type Lifecycle struct {
	logger      *zap.Logger
	stopTimeout time.Duration
	onReady     []func()
	onStopping  []func()

	mu       sync.Mutex
	services []namedService
}

type namedService struct {
	name    string
	service Service
}

// NewLifecycle creates a Lifecycle with DefaultStopTimeout.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger, stopTimeout: DefaultStopTimeout}
}

// SetStopTimeout overrides the per-service stop deadline. d <= 0 is ignored.
func (l *Lifecycle) SetStopTimeout(d time.Duration) {
	if d > 0 {
		l.stopTimeout = d
	}
}

// Add registers a named service. Services start in the order they are added.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// OnReady registers fn to run once every service has been launched.
func (l *Lifecycle) OnReady(fn func()) { l.onReady = append(l.onReady, fn) }

// OnStopping registers fn to run before the first service is stopped.
func (l *Lifecycle) OnStopping(fn func()) { l.onStopping = append(l.onStopping, fn) }

// Run starts every service and blocks until SIGINT, SIGTERM, ctx
// cancellation, or the first service failure.
//
// Postcondition: every service has been asked to stop. The returned error is
// the first service failure, or nil on a signal or cancellation.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	errCh := make(chan error, len(services))
	for _, ns := range services {
		go l.launch(ns, errCh)
	}
	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)
	for _, fn := range l.onReady {
		fn()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		l.logger.Error("service error, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	for _, fn := range l.onStopping {
		fn()
	}
	l.shutdown(services)
	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return runErr
}

func (l *Lifecycle) launch(ns namedService, errCh chan<- error) {
	l.logger.Info("starting service", zap.String("service", ns.name))
	svcStart := time.Now()
	err := ns.service.Start()
	if err == nil {
		l.logger.Debug("service exited", zap.String("service", ns.name))
		return
	}
	l.logger.Error("service failed",
		zap.String("service", ns.name),
		zap.Error(err),
		zap.Duration("uptime", time.Since(svcStart)),
	)
	errCh <- fmt.Errorf("service %s: %w", ns.name, err)
}

// ErrStopTimeout is logged when a service misses its stop deadline.
var ErrStopTimeout = errors.New("stop deadline exceeded")

func (l *Lifecycle) shutdown(services []namedService) {
	shutdownStart := time.Now()
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		svcStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", ns.name))
		if err := l.stop(ns.service); err != nil {
			l.logger.Warn("service did not stop",
				zap.String("service", ns.name),
				zap.Duration("timeout", l.stopTimeout),
				zap.Error(err),
			)
			continue
		}
		l.logger.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(svcStart)),
		)
	}
	l.logger.Info("all services stopped", zap.Duration("shutdown_elapsed", time.Since(shutdownStart)))
}

// stop runs svc.Stop, abandoning it after stopTimeout.
func (l *Lifecycle) stop(svc Service) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Stop()
	}()
	select {
	case <-done:
		return nil
	case <-time.After(l.stopTimeout):
		return ErrStopTimeout
	}
}
