package combat

import "time"

// Roller is the randomness the combat engine consumes.
//
// dice.Roller satisfies this interface.
type Roller interface {
	// Percent reports whether a d100 roll lands at or under chance.
	Percent(chance int) bool
	// Between returns a uniform int in [lo, hi].
	Between(lo, hi int) int
	// Intn returns a uniform int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// NPCInfo is the room/world view of one NPC instance, used to seed a shared
// combat record the first time the NPC is engaged.
type NPCInfo struct {
	InstanceID      string
	TemplateID      string
	Name            string
	Level           int
	Health          int
	MaxHealth       int
	MinDamage       int
	MaxDamage       int
	Stats           Stats
	DodgeBonus      int
	CritBonus       int
	DamageReduction int
	Hostile         bool
	Passive         bool
	Experience      int
}

// World is the room/world collaborator.
type World interface {
	// RoomExists reports whether roomID names a loaded room.
	RoomExists(roomID string) bool
	// NPC returns the NPC with instanceID if it is currently registered in roomID.
	NPC(roomID, instanceID string) (NPCInfo, bool)
	// NPCsInRoom lists the NPCs registered in roomID in a stable order.
	NPCsInRoom(roomID string) []NPCInfo
	// SetNPCHealth writes combat damage back to the room's NPC instance.
	SetNPCHealth(roomID, instanceID string, health int)
	// RemoveNPC removes a dead NPC from its room.
	RemoveNPC(roomID, instanceID string)
	// PlayersInRoom lists the player ids occupying roomID.
	PlayersInRoom(roomID string) []string
}

// Weapon is the combat view of a player's wielded weapon.
type Weapon struct {
	ID         string
	Name       string
	MinDamage  int
	MaxDamage  int
	EnergyCost int
}

// ArmorPiece is one equipped armor item's contribution to damage reduction.
type ArmorPiece struct {
	Name      string
	ArmorType string
	// DR is an explicit reduction value; zero means use the armor type default.
	DR int
}

// Player is the user record the combat engine reads and writes.
//
// Implementations are owned by the session layer; combat only mutates them
// through these methods.
type Player interface {
	UID() string
	Name() string
	RoomID() string
	Level() int
	Health() int
	MaxHealth() int
	SetHealth(hp int)
	Experience() int
	AddExperience(xp int)
	Stats() Stats
	// DodgeBonus is the summed racial and class dodge bonus.
	DodgeBonus() int
	// CritBonus is the racial crit bonus.
	CritBonus() int
	// DRBonus is the summed class and spell damage reduction bonus.
	DRBonus() int
	HasteBonus() int
	Weapon() Weapon
	Armor() []ArmorPiece
	InCombat() bool
	SetInCombat(in bool)
}

// Conn is one network connection that has been attached to a player.
type Conn interface {
	ID() string
	// Valid reports whether the connection is open and authenticated.
	Valid() bool
	ConnectedAt() time.Time
}

// PlayerSnapshot is the persisted subset of player combat state.
type PlayerSnapshot struct {
	UID         string
	Health      int
	Experience  int
	InCombat    bool
	ComboTarget string
	ComboPoints int
}

// Users is the user/persistence collaborator.
type Users interface {
	// Player returns the current record for uid.
	Player(uid string) (Player, bool)
	// Connections returns every connection ever attached to uid, stale ones included.
	Connections(uid string) []Conn
	// Save persists snap. Implementations must not block the tick.
	Save(snap PlayerSnapshot)
	// Revive restores a player killed in combat.
	Revive(uid string)
}

// Drop is one generated loot instance.
type Drop struct {
	InstanceID string
	ItemID     string
	Name       string
}

// Loot is the item/loot collaborator.
type Loot interface {
	// Generate creates the drops for a dead NPC, honoring global creation
	// limits and per-item spawn cooldowns and rates.
	Generate(templateID, instanceID string) []Drop
	// Place puts a drop into a room.
	Place(roomID string, d Drop)
	// WearWeapon reduces the wielded weapon's durability by one.
	// It returns the item name and true when the weapon broke.
	WearWeapon(uid string) (string, bool)
	// WearArmor reduces one random equipped armor piece's durability by one.
	// It returns the item name and true when the piece broke.
	WearArmor(uid string) (string, bool)
}

// AbilityKind classifies a combat ability.
type AbilityKind int

const (
	AbilityPhysical AbilityKind = iota
	AbilitySpell
	AbilityFinisher
)

// AbilityUse describes a queued combat ability.
type AbilityUse struct {
	ID        string
	Name      string
	Kind      AbilityKind
	MinDamage int
	MaxDamage int
	// Resource names the pool the cost is drawn from, e.g. "mana".
	Resource string
}

// Abilities is the ability/resource collaborator.
type Abilities interface {
	// Queued returns the ability uid has queued, if any.
	Queued(uid string) (AbilityUse, bool)
	// Consume dequeues the ability and deducts its resource cost.
	// It returns false, leaving the player's resources unchanged, when the
	// player cannot pay.
	Consume(uid, abilityID string) bool
	// TickCooldowns advances cooldown bookkeeping by one tick.
	TickCooldowns()
	// Proc triggers the wielded weapon's on-hit proc and returns any bonus damage.
	Proc(uid string, weapon Weapon, targetName string) int
}

// Notifier is the notification collaborator.
type Notifier interface {
	// Send delivers a line to one player.
	Send(uid, line string)
	// Broadcast delivers a line to every player in roomID except exceptUID.
	Broadcast(roomID, exceptUID, line string)
	// Prompt redraws the player's command prompt.
	Prompt(uid string)
}
