package inventory_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/fray/internal/game/inventory"
)

const swordYAML = `id: short_sword
name: short sword
kind: weapon
weapon:
  min_damage: 3
  max_damage: 8
  energy_cost: 250
  proc: frost_bite
durability: 40
limit: 5
cooldown: 10m
drop_rate: 0.5
`

const vestYAML = `id: leather_vest
name: leather vest
kind: armor
armor:
  slot: body
  armor_type: leather
`

func TestLoadItems(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sword.yaml"), []byte(swordYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vest.yml"), []byte(vestYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("skip"), 0o644))

	items, err := inventory.LoadItems(dir)
	require.NoError(t, err)
	require.Len(t, items, 2)

	reg, err := inventory.NewRegistryFrom(items)
	require.NoError(t, err)
	sword, ok := reg.Item("short_sword")
	require.True(t, ok)
	assert.Equal(t, 250, sword.Weapon.EnergyCost)
	assert.Equal(t, "frost_bite", sword.Weapon.Proc)
	assert.Equal(t, 10*time.Minute, sword.Cooldown)
	assert.Equal(t, 0.5, sword.EffectiveDropRate())

	vest, ok := reg.Item("leather_vest")
	require.True(t, ok)
	assert.Equal(t, inventory.SlotBody, vest.Armor.Slot)
	assert.Equal(t, 1.0, vest.EffectiveDropRate())
	assert.Equal(t, []string{"leather_vest", "short_sword"}, reg.IDs())
}

func TestLoadItems_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: x\nname: x\nkind: weapon\n"), 0o644))
	_, err := inventory.LoadItems(dir)
	assert.ErrorContains(t, err, "weapon stats are required")
}

func TestItemDef_ValidateReportsEveryViolation(t *testing.T) {
	d := &inventory.ItemDef{
		Kind:       inventory.KindArmor,
		Armor:      &inventory.ArmorStats{Slot: "tail", DR: -1},
		Durability: -1,
		Limit:      -2,
	}
	err := d.Validate()
	require.Error(t, err)
	for _, want := range []string{"id must not be empty", "name must not be empty", "armor slot", "dr must be >= 0", "durability", "limit"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := inventory.NewRegistry()
	d := &inventory.ItemDef{ID: "rock", Name: "rock", Kind: inventory.KindJunk}
	require.NoError(t, reg.Register(d))
	assert.Error(t, reg.Register(d))
}
