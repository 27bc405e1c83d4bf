package gameserver

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cory-johannsen/fray/internal/game/ability"
	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/game/npc"
	"github.com/cory-johannsen/fray/internal/game/session"
)

// RateConfig bounds how fast one player may issue combat commands.
type RateConfig struct {
	PerSecond float64
	Burst     int
}

// CombatHandler is the command layer for attack, flee, bash, and ability use.
// Game-rule failures are reported to the player as chat lines and return false.
//
// Precondition: All fields must be non-nil after construction.
type CombatHandler struct {
	coord      *combat.Coordinator
	abilities  *ability.Service
	abilityReg *ability.Registry
	npcs       *npc.Manager
	sessions   *session.Manager
	notifier   combat.Notifier
	rate       RateConfig
	logger     *zap.Logger

	limMu    sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewCombatHandler creates a CombatHandler.
//
// Precondition: every pointer argument must be non-nil; rc.PerSecond > 0 and rc.Burst >= 1.
// Postcondition: Returns a non-nil CombatHandler.
func NewCombatHandler(
	coord *combat.Coordinator,
	abilities *ability.Service,
	abilityReg *ability.Registry,
	npcs *npc.Manager,
	sessions *session.Manager,
	notifier combat.Notifier,
	rc RateConfig,
	logger *zap.Logger,
) *CombatHandler {
	return &CombatHandler{
		coord:      coord,
		abilities:  abilities,
		abilityReg: abilityReg,
		npcs:       npcs,
		sessions:   sessions,
		notifier:   notifier,
		rate:       rc,
		logger:     logger,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// allow spends one token from uid's limiter.
func (h *CombatHandler) allow(uid string) bool {
	h.limMu.Lock()
	lim, ok := h.limiters[uid]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(h.rate.PerSecond), h.rate.Burst)
		h.limiters[uid] = lim
	}
	h.limMu.Unlock()
	if lim.Allow() {
		return true
	}
	h.notifier.Send(uid, "Slow down! You can't act that quickly.")
	return false
}

// Forget drops uid's limiter.
func (h *CombatHandler) Forget(uid string) {
	h.limMu.Lock()
	defer h.limMu.Unlock()
	delete(h.limiters, uid)
}

// Attack engages the NPC in uid's room matching target (name prefix or ID).
//
// Precondition: target must be non-empty.
// Postcondition: returns true iff uid is now fighting the named NPC.
func (h *CombatHandler) Attack(uid, target string) bool {
	if !h.allow(uid) {
		return false
	}
	p, ok := h.sessions.GetPlayer(uid)
	if !ok {
		h.logger.Warn("attack from unknown player", zap.String("uid", uid))
		return false
	}
	if target == "" {
		h.notifier.Send(uid, "Attack whom?")
		return false
	}
	inst, ok := h.npcs.FindInRoom(p.RoomID(), target)
	if !ok || inst.IsDead() {
		h.notifier.Send(uid, fmt.Sprintf("You don't see %q here.", target))
		return false
	}
	return h.coord.Engage(uid, inst.ID)
}

// Flee starts breaking away from combat.
func (h *CombatHandler) Flee(uid string) bool {
	if !h.allow(uid) {
		return false
	}
	return h.coord.Break(uid)
}

// Bash arms a heavy attack for the next round.
func (h *CombatHandler) Bash(uid string) bool {
	if !h.allow(uid) {
		return false
	}
	return h.coord.Bash(uid)
}

// Use queues the ability named name to replace uid's next first swing.
//
// Postcondition: returns true iff the ability was queued.
func (h *CombatHandler) Use(uid, name string) bool {
	if !h.allow(uid) {
		return false
	}
	def, ok := h.abilityReg.Find(name)
	if !ok {
		h.notifier.Send(uid, fmt.Sprintf("You don't know any ability called %q.", name))
		return false
	}
	if !h.coord.InCombat(uid) {
		h.notifier.Send(uid, fmt.Sprintf("You must be fighting to use %s.", def.Name))
		return false
	}
	switch h.abilities.Queue(uid, def.ID) {
	case ability.Queued:
		h.notifier.Send(uid, fmt.Sprintf("You prepare %s.", def.Name))
		return true
	case ability.OnCooldown:
		h.notifier.Send(uid, fmt.Sprintf("%s is not ready yet (%d ticks).", def.Name, h.abilities.Cooldown(uid, def.ID)))
	default:
		h.notifier.Send(uid, fmt.Sprintf("You can't use %s.", def.Name))
	}
	return false
}
