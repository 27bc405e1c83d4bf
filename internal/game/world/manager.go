package world

import "fmt"

// Manager indexes every loaded room by ID. The world is fixed once content
// is loaded, so a Manager is never mutated after NewManager returns and may
// be shared between goroutines without locking.
type Manager struct {
	zones map[string]*Zone
	rooms map[string]*Room
	// order lists room IDs zone by zone, in file order.
	order []string
	start string
}

// NewManager indexes zones. The first zone's start room is where new and
// revived characters appear.
//
// Postcondition: every room of every zone is reachable through GetRoom, or
// an error names the first zone or room ID seen twice.
func NewManager(zones []*Zone) (*Manager, error) {
	m := &Manager{
		zones: make(map[string]*Zone, len(zones)),
		rooms: make(map[string]*Room),
	}
	for i, z := range zones {
		if _, dup := m.zones[z.ID]; dup {
			return nil, fmt.Errorf("duplicate zone ID: %q", z.ID)
		}
		m.zones[z.ID] = z
		if i == 0 {
			m.start = z.StartRoom
		}
		if err := m.index(z); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) index(z *Zone) error {
	for _, id := range z.RoomIDs() {
		if prev, dup := m.rooms[id]; dup {
			return fmt.Errorf("duplicate room ID %q: in zone %q and %q", id, prev.ZoneID, z.ID)
		}
		m.rooms[id] = z.Rooms[id]
		m.order = append(m.order, id)
	}
	return nil
}

// GetRoom looks up a room by ID.
func (m *Manager) GetRoom(id string) (*Room, bool) {
	r, ok := m.rooms[id]
	return r, ok
}

// RoomExists reports whether id names a loaded room.
func (m *Manager) RoomExists(id string) bool {
	_, ok := m.rooms[id]
	return ok
}

// Zone returns the zone a room belongs to.
func (m *Manager) Zone(roomID string) (*Zone, bool) {
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, false
	}
	z, ok := m.zones[r.ZoneID]
	return z, ok
}

// StartRoom returns the global start room, or nil for an empty world.
func (m *Manager) StartRoom() *Room {
	return m.rooms[m.start]
}

// AllRooms returns every room in load order.
func (m *Manager) AllRooms() []*Room {
	out := make([]*Room, len(m.order))
	for i, id := range m.order {
		out[i] = m.rooms[id]
	}
	return out
}

func (m *Manager) RoomCount() int { return len(m.rooms) }

func (m *Manager) ZoneCount() int { return len(m.zones) }
