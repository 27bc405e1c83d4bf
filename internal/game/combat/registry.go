package combat

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// entry is one arena slot: the shared record plus its targeters and tick gate.
type entry struct {
	npc       *NPCCombatant
	targeters map[string]struct{}
	attacked  bool
}

// Registry is the single source of truth for room-resident NPC combat state
// and for who is attacking whom.
//
// Invariant: at most one record exists per EntityKey.
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	world   World
	logger  *zap.Logger
	entries map[EntityKey]*entry
}

// NewRegistry creates an empty Registry that seeds records from world.
//
// Precondition: world and logger must be non-nil.
func NewRegistry(world World, logger *zap.Logger) *Registry {
	return &Registry{
		world:   world,
		logger:  logger,
		entries: make(map[EntityKey]*entry),
	}
}

// GetOrCreateSharedEntity returns the record for (roomID, instanceID),
// creating it from the world's NPC data on first use.
//
// Postcondition: returns false when the room or NPC does not exist; repeated
// calls for the same key return the same pointer.
func (r *Registry) GetOrCreateSharedEntity(roomID, instanceID string) (*NPCCombatant, bool) {
	key := EntityKey{RoomID: roomID, InstanceID: instanceID}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		return e.npc, true
	}
	if !r.world.RoomExists(roomID) {
		return nil, false
	}
	info, ok := r.world.NPC(roomID, instanceID)
	if !ok {
		return nil, false
	}
	n := newNPCCombatant(roomID, info)
	r.entries[key] = &entry{npc: n, targeters: make(map[string]struct{})}
	return n, true
}

// Lookup returns the record for key without creating one.
func (r *Registry) Lookup(key EntityKey) (*NPCCombatant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	return e.npc, true
}

// Len returns the number of live records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// TrackTargeter adds uid to key's targeter set. Idempotent.
//
// Postcondition: returns false and logs when key has no record.
func (r *Registry) TrackTargeter(key EntityKey, uid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		r.logger.Warn("track targeter on missing entity",
			zap.String("entity", key.String()),
			zap.String("uid", uid),
		)
		return false
	}
	e.targeters[uid] = struct{}{}
	return true
}

// RemoveTargeter removes uid from key's targeter set. Idempotent.
func (r *Registry) RemoveTargeter(key EntityKey, uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		delete(e.targeters, uid)
	}
}

// RemoveTargeterEverywhere removes uid from every targeter set.
func (r *Registry) RemoveTargeterEverywhere(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		delete(e.targeters, uid)
	}
}

// Targeters returns key's targeters sorted by uid.
func (r *Registry) Targeters(key EntityKey) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(e.targeters))
	for uid := range e.targeters {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// MarkAttacked closes key's attack gate for this tick.
//
// Postcondition: returns true only for the first call per key per tick.
func (r *Registry) MarkAttacked(key EntityKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok || e.attacked {
		return false
	}
	e.attacked = true
	return true
}

// HasAttackedThisTick reports whether key's gate is closed.
// A missing record reports true so callers never dispatch its attack.
func (r *Registry) HasAttackedThisTick(key EntityKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return true
	}
	return e.attacked
}

// ResetTickGates reopens every attack gate.
func (r *Registry) ResetTickGates() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		e.attacked = false
	}
}

// ApplyDamage deals amount to key's record on behalf of uid and records
// uid's aggression. It returns the damage applied and whether the record died.
//
// Postcondition: returns (0, false) and logs when key has no record.
func (r *Registry) ApplyDamage(key EntityKey, uid string, amount int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		r.logger.Warn("damage on missing entity",
			zap.String("entity", key.String()),
			zap.String("uid", uid),
		)
		return 0, false
	}
	applied := e.npc.TakeDamage(amount)
	e.npc.RecordAggression(uid, applied)
	return applied, !e.npc.IsAlive()
}

// RecordAggression notes that uid provoked key without dealing damage.
func (r *Registry) RecordAggression(key EntityKey, uid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return false
	}
	e.npc.RecordAggression(uid, 0)
	return true
}

// CleanupDeadEntity removes key's record and targeter set.
//
// Postcondition: returns true exactly once per record.
func (r *Registry) CleanupDeadEntity(roomID, instanceID string) bool {
	key := EntityKey{RoomID: roomID, InstanceID: instanceID}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; !ok {
		return false
	}
	delete(r.entries, key)
	return true
}

// ReleaseIfUntargeted drops key's record when nobody is fighting it, e.g.
// after the NPC has left the room.
func (r *Registry) ReleaseIfUntargeted(key EntityKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok || len(e.targeters) > 0 {
		return false
	}
	delete(r.entries, key)
	return true
}
