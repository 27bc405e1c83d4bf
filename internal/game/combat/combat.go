// Package combat implements tick-driven combat resolution between players and
// room-resident NPCs.
package combat

import "fmt"

// Kind distinguishes player combatants from NPC combatants.
type Kind int

const (
	KindPlayer Kind = iota
	KindNPC
)

// String returns a human-readable kind label.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindNPC:
		return "npc"
	default:
		return "unknown"
	}
}

// Stats are the primary attributes the formula engine reads.
type Stats struct {
	Str int
	Dex int
	Agi int
	Int int
	Wis int
}

// EntityKey identifies one shared NPC record: an NPC instance within a room.
type EntityKey struct {
	RoomID     string
	InstanceID string
}

// String returns "room/instance".
func (k EntityKey) String() string {
	return fmt.Sprintf("%s/%s", k.RoomID, k.InstanceID)
}

// CombatEntity is the capability surface shared by every combatant.
//
// The set of implementations is closed: PlayerCombatant and NPCCombatant.
// Use AsNPC and AsPlayer to reach variant-specific data.
type CombatEntity interface {
	ID() string
	Name() string
	Kind() Kind
	Level() int
	Health() int
	MaxHealth() int
	IsAlive() bool
	// TakeDamage applies amount and returns the damage actually applied,
	// clamped to remaining health.
	TakeDamage(amount int) int
	DamageRange() (min, max int)
	Stats() Stats
	IsHostile() bool
	IsPassive() bool
	ExperienceValue() int
	// AttackRoll rolls raw damage within DamageRange.
	AttackRoll(r Roller) int
	// RecordAggression notes that uid provoked this entity for damage points.
	RecordAggression(uid string, damage int)
	AsNPC() (*NPCCombatant, bool)
	AsPlayer() (*PlayerCombatant, bool)

	sealed()
}

// PlayerCombatant adapts a session-owned Player record to CombatEntity.
type PlayerCombatant struct {
	p Player
}

// NewPlayerCombatant wraps p.
//
// Precondition: p must be non-nil.
func NewPlayerCombatant(p Player) *PlayerCombatant {
	return &PlayerCombatant{p: p}
}

// Player returns the wrapped user record.
func (c *PlayerCombatant) Player() Player { return c.p }

func (c *PlayerCombatant) ID() string     { return c.p.UID() }
func (c *PlayerCombatant) Name() string   { return c.p.Name() }
func (c *PlayerCombatant) Kind() Kind     { return KindPlayer }
func (c *PlayerCombatant) Level() int     { return c.p.Level() }
func (c *PlayerCombatant) Health() int    { return c.p.Health() }
func (c *PlayerCombatant) MaxHealth() int { return c.p.MaxHealth() }
func (c *PlayerCombatant) IsAlive() bool  { return c.p.Health() > 0 }
func (c *PlayerCombatant) Stats() Stats   { return c.p.Stats() }

// TakeDamage reduces the player's health, flooring at zero.
//
// Precondition: amount >= 0.
// Postcondition: returns min(amount, health before the call).
func (c *PlayerCombatant) TakeDamage(amount int) int {
	applied := clampDamage(amount, c.p.Health())
	c.p.SetHealth(c.p.Health() - applied)
	return applied
}

func (c *PlayerCombatant) DamageRange() (int, int) {
	w := c.p.Weapon()
	return w.MinDamage, w.MaxDamage
}

// IsHostile is always false; players are never auto-aggressive.
func (c *PlayerCombatant) IsHostile() bool { return false }

// IsPassive is always false.
func (c *PlayerCombatant) IsPassive() bool { return false }

// ExperienceValue is zero; killing players awards nothing.
func (c *PlayerCombatant) ExperienceValue() int { return 0 }

func (c *PlayerCombatant) AttackRoll(r Roller) int {
	lo, hi := c.DamageRange()
	return r.Between(lo, hi)
}

// RecordAggression is a no-op for players.
func (c *PlayerCombatant) RecordAggression(string, int) {}

func (c *PlayerCombatant) AsNPC() (*NPCCombatant, bool)       { return nil, false }
func (c *PlayerCombatant) AsPlayer() (*PlayerCombatant, bool) { return c, true }
func (c *PlayerCombatant) sealed()                            {}

// NPCCombatant is the shared combat record for one room-resident NPC.
//
// Invariant: at most one NPCCombatant exists per EntityKey; it is created and
// mutated only through the Registry.
type NPCCombatant struct {
	key        EntityKey
	templateID string
	name       string
	level      int
	health     int
	maxHealth  int
	minDamage  int
	maxDamage  int
	stats      Stats
	dodgeBonus int
	critBonus  int
	dr         int
	hostile    bool
	passive    bool
	experience int
	// aggression maps player uid to total damage dealt; misses record zero.
	aggression map[string]int
}

func newNPCCombatant(roomID string, info NPCInfo) *NPCCombatant {
	maxHP := info.MaxHealth
	if maxHP < info.Health {
		maxHP = info.Health
	}
	return &NPCCombatant{
		key:        EntityKey{RoomID: roomID, InstanceID: info.InstanceID},
		templateID: info.TemplateID,
		name:       info.Name,
		level:      info.Level,
		health:     info.Health,
		maxHealth:  maxHP,
		minDamage:  info.MinDamage,
		maxDamage:  info.MaxDamage,
		stats:      info.Stats,
		dodgeBonus: info.DodgeBonus,
		critBonus:  info.CritBonus,
		dr:         info.DamageReduction,
		hostile:    info.Hostile,
		passive:    info.Passive,
		experience: info.Experience,
		aggression: make(map[string]int),
	}
}

// Key returns the record's (room, instance) key.
func (n *NPCCombatant) Key() EntityKey { return n.key }

// TemplateID returns the NPC template the instance was spawned from.
func (n *NPCCombatant) TemplateID() string { return n.templateID }

// DodgeBonus returns the NPC's flat dodge bonus.
func (n *NPCCombatant) DodgeBonus() int { return n.dodgeBonus }

// CritBonus returns the NPC's flat crit bonus.
func (n *NPCCombatant) CritBonus() int { return n.critBonus }

// DamageReduction returns the NPC's natural armor.
func (n *NPCCombatant) DamageReduction() int { return n.dr }

// Aggression returns the damage uid has dealt and whether uid provoked the NPC.
func (n *NPCCombatant) Aggression(uid string) (int, bool) {
	d, ok := n.aggression[uid]
	return d, ok
}

func (n *NPCCombatant) ID() string     { return n.key.InstanceID }
func (n *NPCCombatant) Name() string   { return n.name }
func (n *NPCCombatant) Kind() Kind     { return KindNPC }
func (n *NPCCombatant) Level() int     { return n.level }
func (n *NPCCombatant) Health() int    { return n.health }
func (n *NPCCombatant) MaxHealth() int { return n.maxHealth }
func (n *NPCCombatant) IsAlive() bool  { return n.health > 0 }
func (n *NPCCombatant) Stats() Stats   { return n.stats }

// TakeDamage reduces health, flooring at zero.
//
// Precondition: amount >= 0.
// Postcondition: returns min(amount, health before the call).
func (n *NPCCombatant) TakeDamage(amount int) int {
	applied := clampDamage(amount, n.health)
	n.health -= applied
	return applied
}

func (n *NPCCombatant) DamageRange() (int, int) { return n.minDamage, n.maxDamage }

// IsHostile reports whether the NPC attacks on sight or has been provoked.
func (n *NPCCombatant) IsHostile() bool { return n.hostile || len(n.aggression) > 0 }

// IsPassive reports whether the NPC declines to counterattack.
// Recorded aggression overrides the template's passive flag.
func (n *NPCCombatant) IsPassive() bool { return n.passive && len(n.aggression) == 0 }

func (n *NPCCombatant) ExperienceValue() int { return n.experience }

func (n *NPCCombatant) AttackRoll(r Roller) int {
	return r.Between(n.minDamage, n.maxDamage)
}

// RecordAggression accumulates damage against uid. Zero damage still marks uid as an aggressor.
func (n *NPCCombatant) RecordAggression(uid string, damage int) {
	if damage < 0 {
		damage = 0
	}
	n.aggression[uid] += damage
}

func (n *NPCCombatant) AsNPC() (*NPCCombatant, bool)       { return n, true }
func (n *NPCCombatant) AsPlayer() (*PlayerCombatant, bool) { return nil, false }
func (n *NPCCombatant) sealed()                            {}

func clampDamage(amount, health int) int {
	if amount < 0 {
		return 0
	}
	if health < 0 {
		return 0
	}
	if amount > health {
		return health
	}
	return amount
}
