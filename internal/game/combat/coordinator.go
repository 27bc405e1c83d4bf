package combat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/observability"
)

// Config holds the Coordinator's tunables.
type Config struct {
	// GraceWindow is how long a disconnected player's session survives.
	GraceWindow time.Duration
	// TransferWindow is how long a pending connection transfer is tolerated.
	TransferWindow time.Duration
	// LevelMultiplier scales base energy.
	LevelMultiplier float64
	// MaxAttacks caps attacks per round.
	MaxAttacks int
	// DefaultWeaponCost is the energy cost used for weapons that declare none.
	DefaultWeaponCost int
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		GraceWindow:       5 * time.Second,
		TransferWindow:    3 * time.Second,
		LevelMultiplier:   1.0,
		MaxAttacks:        MaxAttacksPerRound,
		DefaultWeaponCost: 250,
	}
}

// Services are the collaborators a Coordinator drives.
type Services struct {
	Registry  *Registry
	Combos    *ComboTracker
	World     World
	Users     Users
	Loot      Loot
	Abilities Abilities
	Notifier  Notifier
	Roller    Roller
	Logger    *zap.Logger
	// Metrics may be nil.
	Metrics *observability.Metrics
	// Clock returns the current time for command-layer calls; nil uses time.Now.
	Clock func() time.Time
}

// TickReport summarizes one ProcessTick call.
type TickReport struct {
	Rounds int
	Kills  int
	// Ended lists the uids whose sessions ended this tick.
	Ended []string
}

// ReconnectResult is the outcome of Reconnect.
type ReconnectResult int

const (
	// ReconnectNone means the player was not in combat.
	ReconnectNone ReconnectResult = iota
	// ReconnectResumed means an existing session was repointed at the new connection.
	ReconnectResumed
	// ReconnectReconstructed means a session was rebuilt from the persisted in-combat flag.
	ReconnectReconstructed
)

// Coordinator owns every CombatSession and is the only entry point for the
// tick scheduler and the command layer.
//
// Ticks and commands are serialized under one lock.
type Coordinator struct {
	mu       sync.Mutex
	cfg      Config
	svc      Services
	sessions map[string]*Session
	kills    int
}

// NewCoordinator creates a Coordinator.
//
// Precondition: every Services field except Metrics and Clock must be non-nil.
// Postcondition: Returns a Coordinator with no sessions.
func NewCoordinator(cfg Config, svc Services) *Coordinator {
	if cfg.MaxAttacks <= 0 {
		cfg.MaxAttacks = MaxAttacksPerRound
	}
	if cfg.DefaultWeaponCost <= 0 {
		cfg.DefaultWeaponCost = DefaultConfig().DefaultWeaponCost
	}
	if cfg.LevelMultiplier <= 0 {
		cfg.LevelMultiplier = 1.0
	}
	if svc.Clock == nil {
		svc.Clock = time.Now
	}
	return &Coordinator{
		cfg:      cfg,
		svc:      svc,
		sessions: make(map[string]*Session),
	}
}

// Engage starts or retargets uid's fight against the NPC instanceID in the
// player's room.
//
// Postcondition: returns true iff uid has a session whose primary target is
// the NPC. Failures are reported to the player as chat lines.
func (c *Coordinator) Engage(uid, instanceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.svc.Clock()

	p, ok := c.svc.Users.Player(uid)
	if !ok {
		c.svc.Logger.Warn("engage for unknown player", zap.String("uid", uid))
		return false
	}
	conn := LatestValidConn(c.svc.Users.Connections(uid))
	if conn == nil {
		c.svc.Logger.Warn("engage without a valid connection", zap.String("uid", uid))
		return false
	}
	if p.Health() <= 0 {
		c.svc.Notifier.Send(uid, "You are in no condition to fight.")
		return false
	}
	roomID := p.RoomID()
	if roomID == "" || !c.svc.World.RoomExists(roomID) {
		c.svc.Notifier.Send(uid, "There is nothing to fight here.")
		return false
	}
	npc, ok := c.svc.Registry.GetOrCreateSharedEntity(roomID, instanceID)
	if !ok {
		c.svc.Notifier.Send(uid, "They aren't here.")
		return false
	}
	if !npc.IsAlive() {
		c.svc.Notifier.Send(uid, fmt.Sprintf("%s is already dead.", npc.Name()))
		return false
	}
	c.engageLocked(p, conn, npc, now, false)
	return true
}

func (c *Coordinator) engageLocked(p Player, conn Conn, npc *NPCCombatant, now time.Time, reconstructed bool) {
	uid := p.UID()
	key := npc.Key()
	c.svc.Registry.TrackTargeter(key, uid)

	if s, ok := c.sessions[uid]; ok && s.state != Ended {
		s.player = p
		if conn != nil {
			s.conn = conn
		}
		s.target(key)
		s.state = Active
		s.lastActivity = now
		c.svc.Notifier.Send(uid, fmt.Sprintf("You turn to attack %s!", npc.Name()))
		c.svc.Notifier.Prompt(uid)
		return
	}

	s := newSession(p, conn, c.cfg.MaxAttacks, now)
	s.target(key)
	c.sessions[uid] = s
	p.SetInCombat(true)
	c.persist(p)

	if reconstructed {
		c.svc.Notifier.Send(uid, fmt.Sprintf("You are still fighting %s!", npc.Name()))
	} else {
		c.svc.Notifier.Send(uid, fmt.Sprintf("You attack %s!", npc.Name()))
		c.svc.Notifier.Broadcast(key.RoomID, uid, fmt.Sprintf("%s attacks %s!", p.Name(), npc.Name()))
	}
	c.svc.Notifier.Prompt(uid)
	c.svc.Metrics.SetActiveSessions(len(c.sessions))
	c.svc.Logger.Info("combat engaged",
		zap.String("uid", uid),
		zap.String("target", key.String()),
		zap.Bool("reconstructed", reconstructed),
	)
}

// Break flips uid's session to Fleeing. The fight continues until every
// hostile opponent is gone.
//
// Postcondition: returns false when uid has no session.
func (c *Coordinator) Break(uid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[uid]
	if !ok || s.state == Ended {
		c.svc.Notifier.Send(uid, "You aren't fighting anyone.")
		return false
	}
	s.state = Fleeing
	s.heavy = false
	s.lastActivity = c.svc.Clock()
	c.svc.Notifier.Send(uid, "You try to break away from combat!")
	if s.player != nil {
		c.svc.Notifier.Broadcast(s.player.RoomID(), uid, fmt.Sprintf("%s tries to flee!", s.player.Name()))
	}
	return true
}

// Bash arms a heavy attack for uid's next round: double energy cost,
// double damage, no crits.
//
// Postcondition: returns false when uid is not actively fighting.
func (c *Coordinator) Bash(uid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[uid]
	if !ok || s.state == Ended {
		c.svc.Notifier.Send(uid, "You aren't fighting anyone.")
		return false
	}
	if s.state == Fleeing {
		c.svc.Notifier.Send(uid, "You can't bash while fleeing.")
		return false
	}
	s.heavy = true
	c.svc.Notifier.Send(uid, "You wind up for a heavy bash.")
	return true
}

// Disengage ends uid's session immediately, e.g. when the player quits.
func (c *Coordinator) Disengage(uid, reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[uid]
	if !ok {
		return false
	}
	s.end(reason)
	c.finishLocked(s)
	delete(c.sessions, uid)
	c.svc.Metrics.SetActiveSessions(len(c.sessions))
	return true
}

// BeginTransfer marks uid's session as mid-transfer away from connection
// fromConn so the round validity check tolerates the gap until the transfer
// window elapses.
//
// Postcondition: returns false when uid has no session.
func (c *Coordinator) BeginTransfer(uid, fromConn string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[uid]
	if !ok || s.state == Ended {
		return false
	}
	s.transfer.Begin(c.svc.Clock(), c.cfg.TransferWindow, fromConn)
	c.svc.Metrics.IncTransfer("begun")
	c.svc.Logger.Info("combat transfer begun",
		zap.String("uid", uid),
		zap.String("from_conn", fromConn),
		zap.Time("deadline", s.transfer.Deadline),
	)
	return true
}

// Reconnect repoints uid's session at its newest valid connection, or
// rebuilds a session when uid's persisted state says it was in combat.
//
// Postcondition: never creates a second session for uid; the opponent list
// of an existing session is unchanged.
func (c *Coordinator) Reconnect(uid string) ReconnectResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.svc.Clock()

	p, ok := c.svc.Users.Player(uid)
	if !ok {
		return ReconnectNone
	}
	conn := LatestValidConn(c.svc.Users.Connections(uid))

	if s, ok := c.sessions[uid]; ok && s.state != Ended {
		s.player = p
		if conn != nil {
			s.conn = conn
			s.invalidSince = time.Time{}
		}
		if s.transfer.Resolve() {
			c.svc.Metrics.IncTransfer("resolved")
		}
		p.SetInCombat(true)
		c.svc.Notifier.Send(uid, "You are still in combat!")
		c.svc.Notifier.Prompt(uid)
		c.svc.Logger.Info("combat session resumed",
			zap.String("uid", uid),
			zap.Int("opponents", len(s.opponents)),
		)
		return ReconnectResumed
	}

	if !p.InCombat() {
		return ReconnectNone
	}
	if npc, ok := c.firstHostile(p.RoomID()); ok && conn != nil {
		c.engageLocked(p, conn, npc, now, true)
		c.svc.Metrics.IncTransfer("reconstructed")
		return ReconnectReconstructed
	}
	p.SetInCombat(false)
	c.persist(p)
	return ReconnectNone
}

// firstHostile returns the first living hostile NPC in roomID, in the
// world's listing order.
func (c *Coordinator) firstHostile(roomID string) (*NPCCombatant, bool) {
	if roomID == "" || !c.svc.World.RoomExists(roomID) {
		return nil, false
	}
	for _, info := range c.svc.World.NPCsInRoom(roomID) {
		key := EntityKey{RoomID: roomID, InstanceID: info.InstanceID}
		rec, tracked := c.svc.Registry.Lookup(key)
		hostile := info.Hostile || (tracked && rec.IsHostile())
		if !hostile {
			continue
		}
		if tracked && !rec.IsAlive() {
			continue
		}
		if !tracked && info.Health <= 0 {
			continue
		}
		if npc, ok := c.svc.Registry.GetOrCreateSharedEntity(roomID, info.InstanceID); ok {
			return npc, true
		}
	}
	return nil, false
}

// ProcessTick resets attack gates, advances ability cooldowns, resolves one
// round for every session, then removes sessions that ended.
//
// Sessions are visited in map order. Cancelling ctx stops the tick between
// sessions; a round in progress always completes.
func (c *Coordinator) ProcessTick(ctx context.Context, now time.Time) TickReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := time.Now()
	var report TickReport
	killsBefore := c.kills

	c.svc.Registry.ResetTickGates()
	c.svc.Abilities.TickCooldowns()

	for _, s := range c.sessions {
		if ctx.Err() != nil {
			break
		}
		if s.state == Ended {
			continue
		}
		c.refresh(s)
		c.resolveRound(s, now)
		report.Rounds++
		c.svc.Metrics.IncRounds()
	}

	for uid, s := range c.sessions {
		if s.state != Ended {
			continue
		}
		c.finishLocked(s)
		delete(c.sessions, uid)
		report.Ended = append(report.Ended, uid)
	}
	sort.Strings(report.Ended)
	report.Kills = c.kills - killsBefore

	c.svc.Metrics.SetActiveSessions(len(c.sessions))
	c.svc.Metrics.ObserveTick(time.Since(start))
	return report
}

// refresh reloads the session's player record and live connection, which
// may have been replaced since the last tick.
func (c *Coordinator) refresh(s *Session) {
	if p, ok := c.svc.Users.Player(s.uid); ok {
		s.player = p
	} else {
		s.player = nil
	}
	s.conn = LatestValidConn(c.svc.Users.Connections(s.uid))
	if s.conn != nil && s.transfer.State == TransferPending && s.conn.ID() != s.transfer.FromConn {
		s.transfer.Resolve()
		c.svc.Metrics.IncTransfer("resolved")
	}
}

// finishLocked tears down an Ended session's external state.
func (c *Coordinator) finishLocked(s *Session) {
	s.energy.Reset()
	s.heavy = false
	c.svc.Registry.RemoveTargeterEverywhere(s.uid)
	for _, key := range s.Opponents() {
		c.svc.Registry.ReleaseIfUntargeted(key)
	}
	s.opponents = nil
	if s.player != nil {
		s.player.SetInCombat(false)
		c.persist(s.player)
	}
	c.svc.Notifier.Send(s.uid, "You are no longer fighting.")
	c.svc.Notifier.Prompt(s.uid)
	c.svc.Logger.Info("combat ended",
		zap.String("uid", s.uid),
		zap.String("reason", s.endReason),
		zap.Int("rounds", s.round),
	)
}

func (c *Coordinator) persist(p Player) {
	combo := c.svc.Combos.Get(p.UID())
	c.svc.Users.Save(PlayerSnapshot{
		UID:         p.UID(),
		Health:      p.Health(),
		Experience:  p.Experience(),
		InCombat:    p.InCombat(),
		ComboTarget: combo.Target,
		ComboPoints: combo.Points,
	})
}

// InCombat reports whether uid has a live session.
func (c *Coordinator) InCombat(uid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[uid]
	return ok && s.state != Ended
}

// Session returns a snapshot of uid's session.
func (c *Coordinator) Session(uid string) (SessionSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[uid]
	if !ok {
		return SessionSnapshot{}, false
	}
	return s.snapshot(), true
}

// Snapshot returns every session sorted by uid.
func (c *Coordinator) Snapshot() []SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SessionSnapshot, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// SessionCount returns the number of sessions.
func (c *Coordinator) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
