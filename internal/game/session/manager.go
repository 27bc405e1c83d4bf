package session

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Manager tracks all active player sessions, room occupancy, and every
// connection each player has opened.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	players  map[string]*PlayerSession  // uid → session
	roomSets map[string]map[string]bool // roomID → set of UIDs
	conns    map[string][]*Conn         // uid → connection history, oldest first
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{
		players:  make(map[string]*PlayerSession),
		roomSets: make(map[string]map[string]bool),
		conns:    make(map[string][]*Conn),
	}
}

// AddPlayer registers a player session in its room.
//
// Precondition: p must be non-nil with a non-empty UID and room.
// Postcondition: Returns an error if the UID is already registered.
func (m *Manager) AddPlayer(p *PlayerSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.players[p.UID]; exists {
		return fmt.Errorf("player %q already connected", p.UID)
	}
	m.players[p.UID] = p
	m.index(p.UID, p.RoomID())
	return nil
}

func (m *Manager) index(uid, roomID string) {
	if m.roomSets[roomID] == nil {
		m.roomSets[roomID] = make(map[string]bool)
	}
	m.roomSets[roomID][uid] = true
}

func (m *Manager) unindex(uid, roomID string) {
	if rs, ok := m.roomSets[roomID]; ok {
		delete(rs, uid)
		if len(rs) == 0 {
			delete(m.roomSets, roomID)
		}
	}
}

// RemovePlayer removes a player session, closing and forgetting every connection.
//
// Postcondition: Returns an error if not found.
func (m *Manager) RemovePlayer(uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.players[uid]
	if !exists {
		return fmt.Errorf("player %q not found", uid)
	}
	m.unindex(uid, p.RoomID())
	for _, c := range m.conns[uid] {
		_ = c.Close()
	}
	delete(m.conns, uid)
	delete(m.players, uid)
	return nil
}

// MovePlayer moves a player to a new room.
//
// Postcondition: Returns the old room ID, or an error if the player is not found.
func (m *Manager) MovePlayer(uid, newRoomID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.players[uid]
	if !exists {
		return "", fmt.Errorf("player %q not found", uid)
	}
	old := p.RoomID()
	m.unindex(uid, old)
	p.setRoom(newRoomID)
	m.index(uid, newRoomID)
	return old, nil
}

// PlayerUIDsInRoom returns the UIDs of all players in roomID, sorted.
func (m *Manager) PlayerUIDsInRoom(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uids := m.roomSets[roomID]
	out := make([]string, 0, len(uids))
	for uid := range uids {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// GetPlayer returns the session for uid.
func (m *Manager) GetPlayer(uid string) (*PlayerSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[uid]
	return p, ok
}

// Attach opens an authenticated connection for uid and appends it to the
// player's history. Older connections stay as they are.
//
// Postcondition: Returns an error if uid has no session.
func (m *Manager) Attach(uid string, now time.Time) (*Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[uid]; !ok {
		return nil, fmt.Errorf("player %q not found", uid)
	}
	c := NewConn(uid, now, DefaultBufferSize)
	c.Authenticate()
	m.conns[uid] = append(m.conns[uid], c)
	return c, nil
}

// Detach closes the connection with connID but keeps it in the history.
//
// Postcondition: Returns false if no player owns connID.
func (m *Manager) Detach(uid, connID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.conns[uid] {
		if c.ID() == connID {
			_ = c.Close()
			return true
		}
	}
	return false
}

// Connections returns every connection uid has opened, stale ones included.
func (m *Manager) Connections(uid string) []*Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Conn(nil), m.conns[uid]...)
}

// LatestValid returns the most recently opened valid connection of uid.
func (m *Manager) LatestValid(uid string) (*Conn, bool) {
	var best *Conn
	for _, c := range m.Connections(uid) {
		if !c.Valid() {
			continue
		}
		if best == nil || c.ConnectedAt().After(best.ConnectedAt()) {
			best = c
		}
	}
	return best, best != nil
}

// PlayerCount returns the total number of sessions.
func (m *Manager) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// PlayerUIDs returns every logged-in UID, sorted.
func (m *Manager) PlayerUIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.players))
	for uid := range m.players {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}
