package gameserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/game/inventory"
)

func TestUsersAdapter_PlayerCarriesBonusesAndGear(t *testing.T) {
	h := newHarness(t)
	h.join("u1", "cellar")
	users := NewUsersAdapter(h.sessions, h.content.Rules, h.content.Items, h.content.World, h.persister)

	p, ok := users.Player("u1")
	require.True(t, ok)
	assert.Equal(t, 1, p.CritBonus())
	assert.Equal(t, 2, p.DRBonus())
	assert.Zero(t, p.DodgeBonus())
	assert.Equal(t, Unarmed, p.Weapon())
	assert.Empty(t, p.Armor())
	assert.Equal(t, combat.Stats{Str: 12, Dex: 12, Agi: 10, Int: 10, Wis: 10}, p.Stats())

	ps, _ := h.sessions.GetPlayer("u1")
	def, _ := h.content.Items.Item("dagger")
	ps.Equipment.Wield(inventory.NewInstance("d1", def))
	assert.Equal(t, combat.Weapon{ID: "dagger", Name: "a rusty dagger", MinDamage: 2, MaxDamage: 4, EnergyCost: 200}, p.Weapon())

	assert.Len(t, users.Connections("u1"), 1)
	_, ok = users.Player("ghost")
	assert.False(t, ok)
}

func TestUsersAdapter_ReviveRestoresAtStart(t *testing.T) {
	h := newHarness(t)
	h.join("u1", "cellar")
	users := NewUsersAdapter(h.sessions, h.content.Rules, h.content.Items, h.content.World, h.persister)
	ps, _ := h.sessions.GetPlayer("u1")
	ps.SetHealth(0)

	users.Revive("u1")
	assert.Equal(t, 40, ps.Health())
	assert.Equal(t, "square", ps.RoomID())
	assert.Equal(t, []string{"u1"}, h.sessions.PlayerUIDsInRoom("square"))
	users.Revive("ghost")
}

func TestWorldAdapter_NPCViews(t *testing.T) {
	h := newHarness(t)
	wa := NewWorldAdapter(h.content.World, h.npcs, h.respawn, h.sessions, h.clock.Now)
	ratID := h.npcID("cellar", "rat")

	infos := wa.NPCsInRoom("cellar")
	require.Len(t, infos, 2)
	assert.Equal(t, ratID, infos[0].InstanceID)
	assert.True(t, infos[0].Hostile)
	assert.True(t, infos[1].Passive)

	info, ok := wa.NPC("cellar", ratID)
	require.True(t, ok)
	assert.Equal(t, 10, info.Experience)
	_, ok = wa.NPC("square", ratID)
	assert.False(t, ok, "wrong room")

	wa.SetNPCHealth("cellar", ratID, 0)
	_, ok = wa.NPC("cellar", ratID)
	assert.False(t, ok, "dead")

	wa.RemoveNPC("cellar", ratID)
	assert.Len(t, wa.NPCsInRoom("cellar"), 1)
	assert.Equal(t, 1, h.respawn.Pending())
	wa.RemoveNPC("cellar", ratID)
	assert.Equal(t, 1, h.respawn.Pending())

	assert.True(t, wa.RoomExists("square"))
	assert.False(t, wa.RoomExists("void"))
}

func TestLootAdapter_GenerateAndPlace(t *testing.T) {
	h := newHarness(t)
	loot := NewLootAdapter(h.gen, h.content.Items, h.floor, h.content.Templates, h.sessions, midRoller{}, h.clock.Now)

	drops := loot.Generate("rat", "rat-1")
	require.Len(t, drops, 1)
	assert.Equal(t, "pelt", drops[0].ItemID)
	assert.Equal(t, "a rat pelt", drops[0].Name)
	assert.Nil(t, loot.Generate("guard", "g-1"), "no loot table")
	assert.Nil(t, loot.Generate("dragon", "d-1"))

	loot.Place("square", drops[0])
	items := h.floor.ItemsInRoom("square")
	require.Len(t, items, 1)
	assert.Equal(t, drops[0].InstanceID, items[0].InstanceID)

	_, broke := loot.WearWeapon("ghost")
	assert.False(t, broke)
	h.join("u1", "square")
	_, broke = loot.WearArmor("u1")
	assert.False(t, broke, "nothing worn")
}

type midRoller struct{}

func (midRoller) Percent(chance int) bool { return chance >= 50 }
func (midRoller) Between(lo, hi int) int  { return lo + (hi-lo)/2 }
func (midRoller) Intn(n int) int          { return n / 2 }
