package npc

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrNotFound is returned for an instance ID the Manager does not hold.
var ErrNotFound = errors.New("npc instance not found")

// Manager owns every live NPC. Each room keeps its occupants in spawn order,
// which is the order targeting and session rebuilds walk them in.
// All methods are safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	instances map[string]*Instance
	rooms     map[string][]string
	next      uint64
}

func NewManager() *Manager {
	return &Manager{
		instances: make(map[string]*Instance),
		rooms:     make(map[string][]string),
	}
}

// Spawn places a fresh instance of tmpl in roomID. IDs are the template ID
// plus a counter shared by all templates, so they never repeat.
func (m *Manager) Spawn(tmpl *Template, roomID string) (*Instance, error) {
	if tmpl == nil {
		return nil, errors.New("spawning npc: nil template")
	}
	if roomID == "" {
		return nil, fmt.Errorf("spawning %q: empty room ID", tmpl.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	inst := NewInstance(fmt.Sprintf("%s-%d", tmpl.ID, m.next), tmpl, roomID)
	m.instances[inst.ID] = inst
	m.rooms[roomID] = append(m.rooms[roomID], inst.ID)
	return inst, nil
}

// Remove takes an instance out of the world.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("removing %q: %w", id, ErrNotFound)
	}
	delete(m.instances, id)
	ids := slices.DeleteFunc(m.rooms[inst.RoomID], func(s string) bool { return s == id })
	if len(ids) == 0 {
		delete(m.rooms, inst.RoomID)
	} else {
		m.rooms[inst.RoomID] = ids
	}
	return nil
}

// Get returns a copy of the instance.
func (m *Manager) Get(id string) (Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if inst, ok := m.instances[id]; ok {
		return *inst, true
	}
	return Instance{}, false
}

// SetHP writes hp, clamped to [0, MaxHP]. It reports false for an unknown ID.
func (m *Manager) SetHP(id string, hp int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return false
	}
	inst.CurrentHP = max(0, min(hp, inst.MaxHP))
	return true
}

// InstancesInRoom returns copies of roomID's occupants in spawn order.
//
// Postcondition: the slice is non-nil.
func (m *Manager) InstancesInRoom(roomID string) []Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.rooms[roomID]
	out := make([]Instance, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.instances[id])
	}
	return out
}

// CountInRoom counts live instances of templateID in roomID.
func (m *Manager) CountInRoom(roomID, templateID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, id := range m.rooms[roomID] {
		if m.instances[id].TemplateID == templateID {
			n++
		}
	}
	return n
}

// FindInRoom resolves a player's target word: the earliest spawned instance
// whose name starts with target, ignoring case, or whose ID equals it.
func (m *Manager) FindInRoom(roomID, target string) (Instance, bool) {
	prefix := strings.ToLower(target)
	for _, inst := range m.InstancesInRoom(roomID) {
		if strings.EqualFold(inst.ID, target) || strings.HasPrefix(strings.ToLower(inst.Name), prefix) {
			return inst, true
		}
	}
	return Instance{}, false
}
