package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type blockingService struct {
	started atomic.Bool
	stopped atomic.Bool
	stop    chan struct{}
	once    sync.Once
}

func newBlocking() *blockingService {
	return &blockingService{stop: make(chan struct{})}
}

func (b *blockingService) Start() error {
	b.started.Store(true)
	<-b.stop
	return nil
}

func (b *blockingService) Stop() {
	b.once.Do(func() {
		b.stopped.Store(true)
		close(b.stop)
	})
}

type recordingService struct {
	*blockingService
	name  string
	order *[]string
	mu    *sync.Mutex
}

func (r recordingService) Stop() {
	r.mu.Lock()
	*r.order = append(*r.order, r.name)
	r.mu.Unlock()
	r.blockingService.Stop()
}

func waitStarted(t *testing.T, svcs ...*blockingService) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, s := range svcs {
			if !s.started.Load() {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLifecycle_CancelStopsInReverseOrder(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	var (
		mu    sync.Mutex
		order []string
	)
	a, b := newBlocking(), newBlocking()
	lc.Add("tick", recordingService{a, "tick", &order, &mu})
	lc.Add("admin", recordingService{b, "admin", &order, &mu})

	var ready, stopping atomic.Bool
	lc.OnReady(func() { ready.Store(true) })
	lc.OnStopping(func() { stopping.Store(true) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	waitStarted(t, a, b)
	require.Eventually(t, ready.Load, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down")
	}
	assert.True(t, stopping.Load())
	assert.Equal(t, []string{"admin", "tick"}, order)
}

func TestLifecycle_ReturnsFirstServiceError(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	healthy := newBlocking()
	boom := errors.New("address in use")
	lc.Add("healthy", healthy)
	lc.Add("grpc", &FuncService{StartFn: func() error { return boom }})

	err := lc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "service grpc")
	assert.True(t, healthy.stopped.Load())
}

func TestLifecycle_StopTimeoutIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	lc := NewLifecycle(zap.New(core))
	lc.SetStopTimeout(20 * time.Millisecond)
	lc.SetStopTimeout(0)

	hang := make(chan struct{})
	t.Cleanup(func() { close(hang) })
	lc.Add("stuck", &FuncService{
		StartFn: func() error { <-hang; return nil },
		StopFn:  func() { <-hang },
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, lc.Run(ctx))

	entries := logs.FilterMessage("service did not stop").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "stuck", entries[0].ContextMap()["service"])
}

func TestFuncService(t *testing.T) {
	started, stopped := false, false
	svc := &FuncService{
		StartFn: func() error { started = true; return nil },
		StopFn:  func() { stopped = true },
	}
	assert.NoError(t, svc.Start())
	svc.Stop()
	assert.True(t, started)
	assert.True(t, stopped)

	(&FuncService{StartFn: func() error { return nil }}).Stop()
}
