// Package world provides the room model combat is fought in: zones, rooms,
// and the NPC spawns each room carries.
package world

import (
	"fmt"
	"sort"
	"time"
)

// RoomSpawnConfig defines how many instances of an NPC template should exist
// in a room and how long to wait before respawning a dead one.
type RoomSpawnConfig struct {
	// Template is the NPC template ID to spawn.
	Template string
	// Count is the maximum number of live instances of this template in the room.
	Count int
	// RespawnAfter overrides the template's respawn delay. Zero means use the
	// template's default.
	RespawnAfter time.Duration
}

// Room is a location combat can take place in.
type Room struct {
	ID          string
	ZoneID      string
	Title       string
	Description string
	Spawns      []RoomSpawnConfig
}

// Zone groups rooms into a themed area.
type Zone struct {
	ID        string
	Name      string
	StartRoom string
	// Rooms is keyed by room ID.
	Rooms map[string]*Room
	// order preserves file order for deterministic iteration.
	order []string
}

// RoomIDs returns the zone's room IDs in file order. Zones built by hand
// report their rooms sorted by ID.
func (z *Zone) RoomIDs() []string {
	if len(z.order) == len(z.Rooms) {
		return append([]string(nil), z.order...)
	}
	ids := make([]string, 0, len(z.Rooms))
	for id := range z.Rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks zone invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (z *Zone) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("zone ID must not be empty")
	}
	if z.Name == "" {
		return fmt.Errorf("zone %q: name must not be empty", z.ID)
	}
	if len(z.Rooms) == 0 {
		return fmt.Errorf("zone %q: must contain at least one room", z.ID)
	}
	if _, ok := z.Rooms[z.StartRoom]; !ok {
		return fmt.Errorf("zone %q: start_room %q not found in rooms", z.ID, z.StartRoom)
	}
	for id, room := range z.Rooms {
		if room.ID != id {
			return fmt.Errorf("zone %q: room key %q does not match room ID %q", z.ID, id, room.ID)
		}
		if room.Title == "" {
			return fmt.Errorf("zone %q: room %q: title must not be empty", z.ID, id)
		}
		for _, sp := range room.Spawns {
			if sp.Template == "" {
				return fmt.Errorf("zone %q: room %q: spawn template must not be empty", z.ID, id)
			}
			if sp.Count < 1 {
				return fmt.Errorf("zone %q: room %q: spawn %q count must be >= 1", z.ID, id, sp.Template)
			}
		}
	}
	return nil
}
