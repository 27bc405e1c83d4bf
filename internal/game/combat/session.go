package combat

import "time"

// State is a combat session's lifecycle state.
type State int

const (
	// Active sessions attack and can be attacked.
	Active State = iota
	// Fleeing sessions no longer attack but stay vulnerable to hostile opponents.
	Fleeing
	// Ended sessions are removed at the end of the tick.
	Ended
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Fleeing:
		return "fleeing"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Session is one player's ongoing fight.
//
// Invariant: opponents holds no duplicate keys; opponents[0] is the primary target.
// A Session is owned by the Coordinator and accessed only under its lock.
type Session struct {
	uid          string
	player       Player
	conn         Conn
	opponents    []EntityKey
	round        int
	state        State
	endReason    string
	lastActivity time.Time
	invalidSince time.Time
	transfer     Transfer
	energy       *EnergyTracker
	heavy        bool
}

func newSession(p Player, conn Conn, maxAttacks int, now time.Time) *Session {
	return &Session{
		uid:          p.UID(),
		player:       p,
		conn:         conn,
		state:        Active,
		lastActivity: now,
		energy:       NewEnergyTracker(maxAttacks),
	}
}

// UID returns the owning player's id.
func (s *Session) UID() string { return s.uid }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Round returns the number of rounds resolved.
func (s *Session) Round() int { return s.round }

// Opponents returns a copy of the opponent keys, primary first.
func (s *Session) Opponents() []EntityKey {
	out := make([]EntityKey, len(s.opponents))
	copy(out, s.opponents)
	return out
}

// Primary returns the primary target.
func (s *Session) Primary() (EntityKey, bool) {
	if len(s.opponents) == 0 {
		return EntityKey{}, false
	}
	return s.opponents[0], true
}

// LastActivity returns when the session last resolved a round or command.
func (s *Session) LastActivity() time.Time { return s.lastActivity }

// Transfer returns the connection-transfer state.
func (s *Session) Transfer() Transfer { return s.transfer }

// Energy returns the session's energy tracker.
func (s *Session) Energy() *EnergyTracker { return s.energy }

// EndReason explains why an Ended session ended.
func (s *Session) EndReason() string { return s.endReason }

func (s *Session) hasOpponent(key EntityKey) bool {
	for _, k := range s.opponents {
		if k == key {
			return true
		}
	}
	return false
}

// target adds key as the primary opponent, moving it forward if already present.
func (s *Session) target(key EntityKey) {
	s.removeOpponent(key)
	s.opponents = append([]EntityKey{key}, s.opponents...)
}

// addOpponent appends key if absent.
func (s *Session) addOpponent(key EntityKey) bool {
	if s.hasOpponent(key) {
		return false
	}
	s.opponents = append(s.opponents, key)
	return true
}

func (s *Session) removeOpponent(key EntityKey) bool {
	for i, k := range s.opponents {
		if k == key {
			s.opponents = append(s.opponents[:i], s.opponents[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Session) end(reason string) {
	if s.state == Ended {
		return
	}
	s.state = Ended
	s.endReason = reason
}

// SessionSnapshot is a read-only copy of one session for reporting.
type SessionSnapshot struct {
	UID          string    `json:"uid"`
	State        string    `json:"state"`
	Round        int       `json:"round"`
	Opponents    []string  `json:"opponents"`
	Transfer     string    `json:"transfer"`
	LastActivity time.Time `json:"last_activity"`
}

func (s *Session) snapshot() SessionSnapshot {
	ops := make([]string, len(s.opponents))
	for i, k := range s.opponents {
		ops[i] = k.String()
	}
	return SessionSnapshot{
		UID:          s.uid,
		State:        s.state.String(),
		Round:        s.round,
		Opponents:    ops,
		Transfer:     s.transfer.State.String(),
		LastActivity: s.lastActivity,
	}
}
