package gameserver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/observability"
)

// DefaultPersistQueue is the snapshot buffer of a StatePersister.
const DefaultPersistQueue = 256

// StateStore is the durable home of player combat state.
//
// postgres.CombatStateRepository satisfies this interface.
type StateStore interface {
	Save(ctx context.Context, snap combat.PlayerSnapshot) error
	Load(ctx context.Context, uid string) (combat.PlayerSnapshot, error)
}

// StatePersister writes player snapshots to a StateStore from a background
// worker so the combat tick never waits on the database.
//
// A StatePersister with a nil store discards every snapshot.
type StatePersister struct {
	store   StateStore
	queue   chan combat.PlayerSnapshot
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics

	started  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewStatePersister creates a StatePersister.
//
// Precondition: logger must be non-nil; store and metrics may be nil.
// size <= 0 uses DefaultPersistQueue.
func NewStatePersister(store StateStore, size int, logger *zap.Logger, metrics *observability.Metrics) *StatePersister {
	if size <= 0 {
		size = DefaultPersistQueue
	}
	return &StatePersister{
		store:   store,
		queue:   make(chan combat.PlayerSnapshot, size),
		timeout: 5 * time.Second,
		logger:  logger,
		metrics: metrics,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Enabled reports whether snapshots reach a store.
func (p *StatePersister) Enabled() bool { return p.store != nil }

// Enqueue hands snap to the worker without blocking.
//
// Postcondition: when the queue is full snap is dropped and counted.
func (p *StatePersister) Enqueue(snap combat.PlayerSnapshot) {
	if p.store == nil {
		return
	}
	select {
	case p.queue <- snap:
	default:
		p.metrics.IncPersistDropped()
		p.logger.Warn("persist queue full, dropping snapshot", zap.String("uid", snap.UID))
	}
}

// Load reads uid's stored state.
//
// Postcondition: returns false when there is no store, nothing is stored, or
// the read failed (logged).
func (p *StatePersister) Load(ctx context.Context, uid string) (combat.PlayerSnapshot, bool) {
	if p.store == nil {
		return combat.PlayerSnapshot{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	snap, err := p.store.Load(ctx, uid)
	if err != nil {
		p.logger.Debug("no stored combat state", zap.String("uid", uid), zap.Error(err))
		return combat.PlayerSnapshot{}, false
	}
	return snap, true
}

// Start runs the worker until Stop. Snapshots still queued at Stop are
// written before Start returns.
func (p *StatePersister) Start() error {
	p.started.Store(true)
	defer close(p.done)
	for {
		select {
		case snap := <-p.queue:
			p.save(snap)
		case <-p.stop:
			for {
				select {
				case snap := <-p.queue:
					p.save(snap)
				default:
					return nil
				}
			}
		}
	}
}

// Stop signals the worker and waits for the queue to drain.
func (p *StatePersister) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	if p.started.Load() {
		<-p.done
	}
}

func (p *StatePersister) save(snap combat.PlayerSnapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.store.Save(ctx, snap); err != nil {
		p.logger.Error("persisting combat state",
			zap.String("uid", snap.UID),
			zap.Error(err),
		)
	}
}
