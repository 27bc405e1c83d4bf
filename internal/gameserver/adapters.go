package gameserver

import (
	"time"

	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/game/inventory"
	"github.com/cory-johannsen/fray/internal/game/npc"
	"github.com/cory-johannsen/fray/internal/game/ruleset"
	"github.com/cory-johannsen/fray/internal/game/session"
	"github.com/cory-johannsen/fray/internal/game/world"
)

// Unarmed is the weapon a player without a wielded item swings.
var Unarmed = combat.Weapon{ID: "fists", Name: "fists", MinDamage: 1, MaxDamage: 2}

// Templates indexes NPC templates by ID.
type Templates map[string]*npc.Template

// WorldAdapter implements combat.World over the room, NPC and session managers.
type WorldAdapter struct {
	world    *world.Manager
	npcs     *npc.Manager
	respawn  *npc.RespawnManager
	sessions *session.Manager
	clock    func() time.Time
}

// NewWorldAdapter creates a WorldAdapter.
//
// Precondition: world, npcs and sessions must be non-nil; respawn may be nil
// (dead NPCs are then never rescheduled); clock nil uses time.Now.
func NewWorldAdapter(w *world.Manager, npcs *npc.Manager, respawn *npc.RespawnManager, sessions *session.Manager, clock func() time.Time) *WorldAdapter {
	if clock == nil {
		clock = time.Now
	}
	return &WorldAdapter{world: w, npcs: npcs, respawn: respawn, sessions: sessions, clock: clock}
}

var _ combat.World = (*WorldAdapter)(nil)

// RoomExists reports whether roomID is loaded.
func (a *WorldAdapter) RoomExists(roomID string) bool { return a.world.RoomExists(roomID) }

// NPC returns the living NPC instanceID if it is in roomID.
func (a *WorldAdapter) NPC(roomID, instanceID string) (combat.NPCInfo, bool) {
	inst, ok := a.npcs.Get(instanceID)
	if !ok || inst.RoomID != roomID || inst.IsDead() {
		return combat.NPCInfo{}, false
	}
	return npcInfo(inst), true
}

// NPCsInRoom lists the living NPCs in roomID in spawn order.
func (a *WorldAdapter) NPCsInRoom(roomID string) []combat.NPCInfo {
	insts := a.npcs.InstancesInRoom(roomID)
	out := make([]combat.NPCInfo, 0, len(insts))
	for i := range insts {
		if !insts[i].IsDead() {
			out = append(out, npcInfo(insts[i]))
		}
	}
	return out
}

// SetNPCHealth writes combat damage back to the instance.
func (a *WorldAdapter) SetNPCHealth(_, instanceID string, health int) {
	a.npcs.SetHP(instanceID, health)
}

// RemoveNPC removes a dead NPC and schedules its respawn.
func (a *WorldAdapter) RemoveNPC(roomID, instanceID string) {
	inst, ok := a.npcs.Get(instanceID)
	if !ok {
		return
	}
	_ = a.npcs.Remove(instanceID)
	if a.respawn != nil {
		a.respawn.Schedule(inst.TemplateID, roomID, a.clock())
	}
}

// PlayersInRoom lists the player ids in roomID.
func (a *WorldAdapter) PlayersInRoom(roomID string) []string {
	return a.sessions.PlayerUIDsInRoom(roomID)
}

func npcInfo(inst npc.Instance) combat.NPCInfo {
	return combat.NPCInfo{
		InstanceID: inst.ID,
		TemplateID: inst.TemplateID,
		Name:       inst.Name,
		Level:      inst.Level,
		Health:     inst.CurrentHP,
		MaxHealth:  inst.MaxHP,
		MinDamage:  inst.Damage.Min,
		MaxDamage:  inst.Damage.Max,
		Stats: combat.Stats{
			Str: inst.Stats.Str,
			Dex: inst.Stats.Dex,
			Agi: inst.Stats.Agi,
			Int: inst.Stats.Int,
			Wis: inst.Stats.Wis,
		},
		DodgeBonus:      inst.DodgeBonus,
		CritBonus:       inst.CritBonus,
		DamageReduction: inst.DamageReduction,
		Hostile:         inst.Hostile,
		Passive:         inst.Passive,
		Experience:      inst.Experience,
	}
}

// UsersAdapter implements combat.Users over the session manager.
type UsersAdapter struct {
	sessions  *session.Manager
	rules     *ruleset.Registry
	items     *inventory.Registry
	world     *world.Manager
	persister *StatePersister
}

// NewUsersAdapter creates a UsersAdapter.
//
// Precondition: every argument must be non-nil.
func NewUsersAdapter(sessions *session.Manager, rules *ruleset.Registry, items *inventory.Registry, w *world.Manager, persister *StatePersister) *UsersAdapter {
	return &UsersAdapter{sessions: sessions, rules: rules, items: items, world: w, persister: persister}
}

var _ combat.Users = (*UsersAdapter)(nil)

// Player wraps uid's session as a combat.Player.
func (a *UsersAdapter) Player(uid string) (combat.Player, bool) {
	p, ok := a.sessions.GetPlayer(uid)
	if !ok {
		return nil, false
	}
	return newPlayerAdapter(p, a.rules.Bonuses(p.Race, p.Class), a.items), true
}

// Connections returns every connection attached to uid, stale ones included.
func (a *UsersAdapter) Connections(uid string) []combat.Conn {
	conns := a.sessions.Connections(uid)
	out := make([]combat.Conn, len(conns))
	for i, c := range conns {
		out[i] = c
	}
	return out
}

// Save hands snap to the persistence worker without blocking.
func (a *UsersAdapter) Save(snap combat.PlayerSnapshot) {
	a.persister.Enqueue(snap)
}

// Revive restores a slain player to full health in the start room.
func (a *UsersAdapter) Revive(uid string) {
	p, ok := a.sessions.GetPlayer(uid)
	if !ok {
		return
	}
	p.SetHealth(p.MaxHealth())
	if start := a.world.StartRoom(); start != nil && start.ID != p.RoomID() {
		_, _ = a.sessions.MovePlayer(uid, start.ID)
	}
}

// playerAdapter is the combat view of a PlayerSession plus its race/class
// bonuses and equipment.
type playerAdapter struct {
	p       *session.PlayerSession
	bonuses ruleset.Bonuses
	items   *inventory.Registry
}

func newPlayerAdapter(p *session.PlayerSession, b ruleset.Bonuses, items *inventory.Registry) *playerAdapter {
	return &playerAdapter{p: p, bonuses: b, items: items}
}

var _ combat.Player = (*playerAdapter)(nil)

func (a *playerAdapter) UID() string          { return a.p.UID }
func (a *playerAdapter) Name() string         { return a.p.Name }
func (a *playerAdapter) RoomID() string       { return a.p.RoomID() }
func (a *playerAdapter) Level() int           { return a.p.Level() }
func (a *playerAdapter) Health() int          { return a.p.Health() }
func (a *playerAdapter) MaxHealth() int       { return a.p.MaxHealth() }
func (a *playerAdapter) SetHealth(hp int)     { a.p.SetHealth(hp) }
func (a *playerAdapter) Experience() int      { return a.p.Experience() }
func (a *playerAdapter) AddExperience(xp int) { a.p.AddExperience(xp) }
func (a *playerAdapter) DodgeBonus() int      { return a.bonuses.Dodge }
func (a *playerAdapter) CritBonus() int       { return a.bonuses.Crit }
func (a *playerAdapter) DRBonus() int         { return a.bonuses.DR }
func (a *playerAdapter) HasteBonus() int      { return a.bonuses.Haste }
func (a *playerAdapter) InCombat() bool       { return a.p.InCombat() }
func (a *playerAdapter) SetInCombat(in bool)  { a.p.SetInCombat(in) }

func (a *playerAdapter) Stats() combat.Stats {
	s := a.p.Stats()
	return combat.Stats{Str: s.Str, Dex: s.Dex, Agi: s.Agi, Int: s.Int, Wis: s.Wis}
}

// Weapon returns the wielded weapon, or Unarmed.
func (a *playerAdapter) Weapon() combat.Weapon {
	inst, ok := a.p.Equipment.Weapon()
	if !ok {
		return Unarmed
	}
	def, ok := a.items.Item(inst.ItemDefID)
	if !ok || def.Weapon == nil {
		return Unarmed
	}
	return combat.Weapon{
		ID:         def.ID,
		Name:       def.Name,
		MinDamage:  def.Weapon.MinDamage,
		MaxDamage:  def.Weapon.MaxDamage,
		EnergyCost: def.Weapon.EnergyCost,
	}
}

// Armor returns every worn piece with its definition's DR values.
func (a *playerAdapter) Armor() []combat.ArmorPiece {
	worn := a.p.Equipment.Armor()
	out := make([]combat.ArmorPiece, 0, len(worn))
	for _, sa := range worn {
		def, ok := a.items.Item(sa.Item.ItemDefID)
		if !ok || def.Armor == nil {
			continue
		}
		out = append(out, combat.ArmorPiece{Name: def.Name, ArmorType: def.Armor.ArmorType, DR: def.Armor.DR})
	}
	return out
}

// LootAdapter implements combat.Loot over the item registry, loot generator
// and room floors.
type LootAdapter struct {
	gen       *inventory.Generator
	items     *inventory.Registry
	floor     *inventory.FloorManager
	templates Templates
	sessions  *session.Manager
	roller    combat.Roller
	clock     func() time.Time
}

// NewLootAdapter creates a LootAdapter.
//
// Precondition: every argument except clock must be non-nil; clock nil uses time.Now.
func NewLootAdapter(gen *inventory.Generator, items *inventory.Registry, floor *inventory.FloorManager, templates Templates, sessions *session.Manager, roller combat.Roller, clock func() time.Time) *LootAdapter {
	if clock == nil {
		clock = time.Now
	}
	return &LootAdapter{gen: gen, items: items, floor: floor, templates: templates, sessions: sessions, roller: roller, clock: clock}
}

var _ combat.Loot = (*LootAdapter)(nil)

// Generate rolls the template's loot table.
func (a *LootAdapter) Generate(templateID, _ string) []combat.Drop {
	tmpl, ok := a.templates[templateID]
	if !ok || tmpl.Loot == nil {
		return nil
	}
	insts := a.gen.Generate(tmpl.Loot, a.clock())
	out := make([]combat.Drop, 0, len(insts))
	for _, inst := range insts {
		name := inst.ItemDefID
		if def, ok := a.items.Item(inst.ItemDefID); ok {
			name = def.Name
		}
		out = append(out, combat.Drop{InstanceID: inst.InstanceID, ItemID: inst.ItemDefID, Name: name})
	}
	return out
}

// Place drops d on roomID's floor at full durability.
func (a *LootAdapter) Place(roomID string, d combat.Drop) {
	inst := inventory.ItemInstance{InstanceID: d.InstanceID, ItemDefID: d.ItemID}
	if def, ok := a.items.Item(d.ItemID); ok {
		inst.Durability = def.Durability
	}
	a.floor.Drop(roomID, inst)
}

// WearWeapon wears uid's wielded weapon. A broken weapon is destroyed and
// frees its slot under the item's creation limit.
func (a *LootAdapter) WearWeapon(uid string) (string, bool) {
	p, ok := a.sessions.GetPlayer(uid)
	if !ok {
		return "", false
	}
	res, ok := p.Equipment.WearWeapon(a.items)
	return a.broke(res, ok)
}

// WearArmor wears one random piece of uid's armor.
func (a *LootAdapter) WearArmor(uid string) (string, bool) {
	p, ok := a.sessions.GetPlayer(uid)
	if !ok {
		return "", false
	}
	res, ok := p.Equipment.WearArmor(a.items, a.roller.Intn)
	return a.broke(res, ok)
}

func (a *LootAdapter) broke(res inventory.WearResult, ok bool) (string, bool) {
	if !ok || !res.Broken {
		return "", false
	}
	a.gen.Release(res.Item.ItemDefID)
	return res.Name, true
}
