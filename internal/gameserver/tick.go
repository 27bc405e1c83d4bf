package gameserver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/game/npc"
	"github.com/cory-johannsen/fray/internal/game/session"
)

// RegenPerTick is the amount every resource pool recovers each tick.
const RegenPerTick = 1

// TickManager drives the world tick: one combat round per session, NPC
// respawns, and resource regeneration.
//
// Invariant: ticks never overlap; each callback runs at most once per interval.
type TickManager struct {
	interval time.Duration
	coord    *combat.Coordinator
	npcs     *npc.Manager
	respawn  *npc.RespawnManager
	sessions *session.Manager
	notifier combat.Notifier
	clock    func() time.Time
	logger   *zap.Logger

	running atomic.Bool
	mu      sync.Mutex
	ticks   int
}

// NewTickManager returns a manager that fires ticks every interval.
//
// Precondition: interval must be > 0; respawn may be nil; every other
// pointer must be non-nil. clock nil uses time.Now.
func NewTickManager(interval time.Duration, coord *combat.Coordinator, npcs *npc.Manager, respawn *npc.RespawnManager, sessions *session.Manager, notifier combat.Notifier, clock func() time.Time, logger *zap.Logger) *TickManager {
	if interval <= 0 {
		panic("gameserver.NewTickManager: interval must be > 0")
	}
	if clock == nil {
		clock = time.Now
	}
	return &TickManager{
		interval: interval,
		coord:    coord,
		npcs:     npcs,
		respawn:  respawn,
		sessions: sessions,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// Tick runs one world tick at now.
//
// Postcondition: every live combat session resolved one round; due respawns
// were placed and announced.
func (t *TickManager) Tick(ctx context.Context, now time.Time) combat.TickReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticks++

	report := t.coord.ProcessTick(ctx, now)
	if t.respawn != nil {
		for _, inst := range t.respawn.Tick(now, t.npcs) {
			t.notifier.Broadcast(inst.RoomID, "", fmt.Sprintf("%s appears.", inst.Name))
		}
	}
	for _, uid := range t.sessions.PlayerUIDs() {
		if p, ok := t.sessions.GetPlayer(uid); ok {
			p.Regenerate(RegenPerTick)
		}
	}
	if report.Rounds > 0 || report.Kills > 0 {
		t.logger.Debug("tick",
			zap.Int("tick", t.ticks),
			zap.Int("rounds", report.Rounds),
			zap.Int("kills", report.Kills),
			zap.Strings("ended", report.Ended),
		)
	}
	return report
}

// Ticks returns how many ticks have run.
func (t *TickManager) Ticks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

// Running reports whether the tick loop is active.
func (t *TickManager) Running() bool { return t.running.Load() }

// Start begins the tick loop. Runs until ctx is cancelled.
func (t *TickManager) Start(ctx context.Context) {
	t.running.Store(true)
	go func() {
		defer t.running.Store(false)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Tick(ctx, t.clock())
			}
		}
	}()
}
