package gameserver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/observability"
)

func TestStatePersister_WorkerDrainsOnStop(t *testing.T) {
	store := newMemStore()
	p := NewStatePersister(store, 8, zaptest.NewLogger(t), nil)
	require.True(t, p.Enabled())

	done := make(chan error, 1)
	go func() { done <- p.Start() }()
	require.Eventually(t, p.started.Load, time.Second, time.Millisecond)

	for i := 0; i < 5; i++ {
		p.Enqueue(combat.PlayerSnapshot{UID: "u1", Health: i})
	}
	p.Enqueue(combat.PlayerSnapshot{UID: "u2", InCombat: true})
	p.Stop()
	require.NoError(t, <-done)

	snap, ok := store.get("u1")
	require.True(t, ok)
	assert.Equal(t, 4, snap.Health, "last write wins")
	snap, ok = store.get("u2")
	require.True(t, ok)
	assert.True(t, snap.InCombat)
	assert.Equal(t, 6, store.saves)

	p.Stop()
}

func TestStatePersister_FullQueueDrops(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	p := NewStatePersister(newMemStore(), 2, zap.New(core), metrics)

	for i := 0; i < 5; i++ {
		p.Enqueue(combat.PlayerSnapshot{UID: fmt.Sprintf("u%d", i)})
	}
	assert.Equal(t, 3, logs.FilterMessage("persist queue full, dropping snapshot").Len())
	assert.Equal(t, 3.0, counterValue(t, reg, "fray_persist_dropped_total"))
}

func TestStatePersister_SaveErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := newMemStore()
	store.fail = errors.New("connection refused")
	p := NewStatePersister(store, 4, zap.New(core), nil)

	go func() { _ = p.Start() }()
	p.Enqueue(combat.PlayerSnapshot{UID: "u1"})
	require.Eventually(t, func() bool {
		return logs.FilterMessage("persisting combat state").Len() == 1
	}, time.Second, time.Millisecond)
	p.Stop()
}

func TestStatePersister_NilStoreIsInert(t *testing.T) {
	p := NewStatePersister(nil, 0, zaptest.NewLogger(t), nil)
	assert.False(t, p.Enabled())
	p.Enqueue(combat.PlayerSnapshot{UID: "u1"})
	_, ok := p.Load(context.Background(), "u1")
	assert.False(t, ok)
	assert.Equal(t, DefaultPersistQueue, cap(p.queue))
	p.Stop()
}

func TestStatePersister_LoadMissing(t *testing.T) {
	store := newMemStore()
	store.snaps["u1"] = combat.PlayerSnapshot{UID: "u1", Health: 9}
	p := NewStatePersister(store, 1, zaptest.NewLogger(t), nil)

	snap, ok := p.Load(context.Background(), "u1")
	require.True(t, ok)
	assert.Equal(t, 9, snap.Health)
	_, ok = p.Load(context.Background(), "u2")
	assert.False(t, ok)
}

func TestPropertyPersisterNeverExceedsQueue(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(1, 16).Draw(rt, "size")
		n := rapid.IntRange(0, 40).Draw(rt, "n")
		p := NewStatePersister(newMemStore(), size, zap.NewNop(), nil)
		for i := 0; i < n; i++ {
			p.Enqueue(combat.PlayerSnapshot{UID: fmt.Sprintf("u%d", i)})
		}
		want := n
		if want > size {
			want = size
		}
		if got := len(p.queue); got != want {
			rt.Fatalf("queued %d, want %d", got, want)
		}
	})
}

// counterValue reads the unlabelled counter name from reg.
func counterValue(t *testing.T, reg prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		var total float64
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
