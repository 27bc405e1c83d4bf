package inventory

import (
	"slices"
	"sync"
)

// FloorManager holds the loot lying in each room, oldest drop first.
// It is safe for concurrent use.
type FloorManager struct {
	mu    sync.RWMutex
	rooms map[string][]ItemInstance
}

func NewFloorManager() *FloorManager {
	return &FloorManager{rooms: make(map[string][]ItemInstance)}
}

// Drop leaves inst on the floor of roomID.
func (fm *FloorManager) Drop(roomID string, inst ItemInstance) {
	fm.mu.Lock()
	fm.rooms[roomID] = append(fm.rooms[roomID], inst)
	fm.mu.Unlock()
}

// Pickup takes instanceID off the floor of roomID. A miss leaves the floor
// untouched.
func (fm *FloorManager) Pickup(roomID, instanceID string) (ItemInstance, bool) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	items := fm.rooms[roomID]
	i := slices.IndexFunc(items, func(it ItemInstance) bool { return it.InstanceID == instanceID })
	if i < 0 {
		return ItemInstance{}, false
	}
	found := items[i]
	if rest := slices.Delete(items, i, i+1); len(rest) > 0 {
		fm.rooms[roomID] = rest
	} else {
		delete(fm.rooms, roomID)
	}
	return found, true
}

// ItemsInRoom returns a copy of roomID's floor.
func (fm *FloorManager) ItemsInRoom(roomID string) []ItemInstance {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return slices.Clone(fm.rooms[roomID])
}
