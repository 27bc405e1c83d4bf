package npc

import (
	"container/heap"
	"sync"
	"time"
)

// RoomSpawn is one room's population rule for one template.
type RoomSpawn struct {
	TemplateID string
	// Max caps the live population; respawns beyond it are dropped.
	Max int
	// RespawnDelay overrides the template's delay when positive.
	RespawnDelay time.Duration
}

type respawnEntry struct {
	templateID string
	roomID     string
	readyAt    time.Time
}

// respawnQueue is a min-heap on readyAt.
type respawnQueue []respawnEntry

func (q respawnQueue) Len() int           { return len(q) }
func (q respawnQueue) Less(i, j int) bool { return q[i].readyAt.Before(q[j].readyAt) }
func (q respawnQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *respawnQueue) Push(x any)        { *q = append(*q, x.(respawnEntry)) }
func (q *respawnQueue) Pop() any {
	old := *q
	e := old[len(old)-1]
	*q = old[:len(old)-1]
	return e
}

// RespawnManager brings dead NPCs back after their delay and keeps rooms at
// their configured population.
//
// Schedule may be called from any goroutine; Tick and PopulateRoom run on
// the tick goroutine.
type RespawnManager struct {
	spawns    map[string][]RoomSpawn
	templates map[string]*Template

	mu      sync.Mutex
	pending respawnQueue
}

// NewRespawnManager builds a manager over per-room spawn rules. Nil maps
// give a manager that never spawns anything.
func NewRespawnManager(spawns map[string][]RoomSpawn, templates map[string]*Template) *RespawnManager {
	if spawns == nil {
		spawns = map[string][]RoomSpawn{}
	}
	if templates == nil {
		templates = map[string]*Template{}
	}
	return &RespawnManager{spawns: spawns, templates: templates}
}

// Template returns the template registered under id.
func (r *RespawnManager) Template(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// PopulateRoom tops up every template in roomID to its cap and returns what
// it spawned.
func (r *RespawnManager) PopulateRoom(roomID string, mgr *Manager) []Instance {
	var out []Instance
	for _, rule := range r.spawns[roomID] {
		tmpl, ok := r.templates[rule.TemplateID]
		if !ok {
			continue
		}
		for n := mgr.CountInRoom(roomID, rule.TemplateID); n < rule.Max; n++ {
			if inst, err := mgr.Spawn(tmpl, roomID); err == nil {
				out = append(out, *inst)
			}
		}
	}
	return out
}

// Schedule queues a respawn of templateID in roomID.
//
// Postcondition: nothing is queued, and false returned, when the template
// does not respawn in that room.
func (r *RespawnManager) Schedule(templateID, roomID string, now time.Time) bool {
	delay := r.ResolvedDelay(templateID, roomID)
	if delay <= 0 {
		return false
	}
	r.mu.Lock()
	heap.Push(&r.pending, respawnEntry{templateID: templateID, roomID: roomID, readyAt: now.Add(delay)})
	r.mu.Unlock()
	return true
}

// Pending returns the number of queued respawns.
func (r *RespawnManager) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending.Len()
}

// Tick spawns every due entry whose room is below its cap.
//
// Postcondition: every entry with readyAt <= now has left the queue, whether
// or not it produced an instance.
func (r *RespawnManager) Tick(now time.Time, mgr *Manager) []Instance {
	r.mu.Lock()
	var due []respawnEntry
	for r.pending.Len() > 0 && !r.pending[0].readyAt.After(now) {
		due = append(due, heap.Pop(&r.pending).(respawnEntry))
	}
	r.mu.Unlock()

	var out []Instance
	for _, e := range due {
		tmpl, ok := r.templates[e.templateID]
		if !ok {
			continue
		}
		limit := 1
		if rule, ok := r.rule(e.roomID, e.templateID); ok {
			limit = rule.Max
		}
		if mgr.CountInRoom(e.roomID, e.templateID) >= limit {
			continue
		}
		if inst, err := mgr.Spawn(tmpl, e.roomID); err == nil {
			out = append(out, *inst)
		}
	}
	return out
}

// ResolvedDelay returns how long templateID stays dead in roomID: the room's
// override if set, else the template's own delay, else zero.
func (r *RespawnManager) ResolvedDelay(templateID, roomID string) time.Duration {
	if rule, ok := r.rule(roomID, templateID); ok && rule.RespawnDelay > 0 {
		return rule.RespawnDelay
	}
	if tmpl, ok := r.templates[templateID]; ok {
		return tmpl.Respawn()
	}
	return 0
}

func (r *RespawnManager) rule(roomID, templateID string) (RoomSpawn, bool) {
	for _, rule := range r.spawns[roomID] {
		if rule.TemplateID == templateID {
			return rule, true
		}
	}
	return RoomSpawn{}, false
}
