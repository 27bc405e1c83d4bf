package gameserver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/game/ability"
	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/game/session"
)

// LoginHandler owns the connection lifecycle: login, reconnect, transfer
// between connections, disconnect, and quit.
type LoginHandler struct {
	sessions  *session.Manager
	coord     *combat.Coordinator
	combos    *combat.ComboTracker
	abilities *ability.Service
	combat    *CombatHandler
	persister *StatePersister
	outfit    *Outfitter
	clock     func() time.Time
	logger    *zap.Logger
}

// NewLoginHandler creates a LoginHandler.
//
// Precondition: every pointer must be non-nil; clock nil uses time.Now.
func NewLoginHandler(sessions *session.Manager, coord *combat.Coordinator, combos *combat.ComboTracker, abilities *ability.Service, ch *CombatHandler, persister *StatePersister, outfit *Outfitter, clock func() time.Time, logger *zap.Logger) *LoginHandler {
	if clock == nil {
		clock = time.Now
	}
	return &LoginHandler{
		sessions:  sessions,
		coord:     coord,
		combos:    combos,
		abilities: abilities,
		combat:    ch,
		persister: persister,
		outfit:    outfit,
		clock:     clock,
		logger:    logger,
	}
}

// Login attaches a new authenticated connection for spec.UID. A player not
// yet in memory is built from spec, overlaid with any stored combat state,
// and equipped with spec.Kit.
// A player stored as in combat has their fight rebuilt or resumed. A player
// who is still connected elsewhere is transferred to the new connection.
//
// Postcondition: returns the new connection, or an error if the player could
// not be registered. At most one of the player's connections is valid.
func (h *LoginHandler) Login(ctx context.Context, spec session.PlayerSpec) (*session.Conn, combat.ReconnectResult, error) {
	if _, ok := h.sessions.GetPlayer(spec.UID); !ok {
		if snap, ok := h.persister.Load(ctx, spec.UID); ok {
			spec.HP = snap.Health
			spec.Experience = snap.Experience
			spec.InCombat = snap.InCombat
			h.combos.Restore(spec.UID, combat.ComboState{Target: snap.ComboTarget, Points: snap.ComboPoints})
		}
		p := session.NewPlayerSession(spec)
		if err := h.sessions.AddPlayer(p); err != nil {
			return nil, combat.ReconnectNone, fmt.Errorf("login %q: %w", spec.UID, err)
		}
		h.outfit.Outfit(p, spec.Kit)
	}
	if old, ok := h.sessions.LatestValid(spec.UID); ok {
		conn, res, err := h.handOff(spec.UID, old.ID())
		if err != nil {
			return nil, combat.ReconnectNone, fmt.Errorf("login %q: %w", spec.UID, err)
		}
		h.logger.Info("player transferred",
			zap.String("uid", spec.UID),
			zap.String("from", old.ID()),
			zap.String("conn", conn.ID()),
			zap.Int("reconnect", int(res)),
		)
		return conn, res, nil
	}
	conn, err := h.sessions.Attach(spec.UID, h.clock())
	if err != nil {
		return nil, combat.ReconnectNone, fmt.Errorf("login %q: %w", spec.UID, err)
	}
	res := h.coord.Reconnect(spec.UID)
	h.logger.Info("player connected",
		zap.String("uid", spec.UID),
		zap.String("conn", conn.ID()),
		zap.Int("reconnect", int(res)),
	)
	return conn, res, nil
}

// Transfer moves uid from connection fromConn to a fresh one, keeping any
// fight alive across the gap.
//
// Postcondition: the old connection is closed; the session, if any, points
// at the new connection.
func (h *LoginHandler) Transfer(uid, fromConn string) (*session.Conn, error) {
	conn, _, err := h.handOff(uid, fromConn)
	if err != nil {
		return nil, fmt.Errorf("transfer %q: %w", uid, err)
	}
	return conn, nil
}

func (h *LoginHandler) handOff(uid, fromConn string) (*session.Conn, combat.ReconnectResult, error) {
	h.coord.BeginTransfer(uid, fromConn)
	h.sessions.Detach(uid, fromConn)
	conn, err := h.sessions.Attach(uid, h.clock())
	if err != nil {
		return nil, combat.ReconnectNone, err
	}
	return conn, h.coord.Reconnect(uid), nil
}

// Disconnect closes connID. A fight in progress is left to the grace window.
func (h *LoginHandler) Disconnect(uid, connID string) bool {
	if !h.sessions.Detach(uid, connID) {
		return false
	}
	h.logger.Info("player disconnected",
		zap.String("uid", uid),
		zap.String("conn", connID),
		zap.Bool("in_combat", h.coord.InCombat(uid)),
	)
	return true
}

// Quit ends uid's fight and removes the player from the world.
func (h *LoginHandler) Quit(uid string) error {
	h.coord.Disengage(uid, "quit")
	h.abilities.Forget(uid)
	h.combat.Forget(uid)
	h.combos.Clear(uid)
	if err := h.sessions.RemovePlayer(uid); err != nil {
		return fmt.Errorf("quit %q: %w", uid, err)
	}
	return nil
}
