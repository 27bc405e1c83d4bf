package ruleset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/fray/internal/game/ruleset"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadRacesAndClasses(t *testing.T) {
	races := t.TempDir()
	writeFile(t, races, "elf.yaml", "id: elf\nname: Elf\ndodge_bonus: 3\ncrit_bonus: 1\n")
	writeFile(t, races, "skip.txt", "nope")
	classes := t.TempDir()
	writeFile(t, classes, "warrior.yaml", "id: warrior\nname: Warrior\ndr_bonus: 2\nhaste: 20\nresources:\n  stamina: 10\n")
	writeFile(t, classes, "rogue.yml", "id: rogue\nname: Rogue\ndodge_bonus: 4\n")

	rs, err := ruleset.LoadRaces(races)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	cs, err := ruleset.LoadClasses(classes)
	require.NoError(t, err)
	require.Len(t, cs, 2)

	reg := ruleset.NewRegistry(rs, cs)
	assert.Equal(t, ruleset.Bonuses{Dodge: 3, Crit: 1, DR: 2, Haste: 20}, reg.Bonuses("elf", "warrior"))
	assert.Equal(t, ruleset.Bonuses{Dodge: 7, Crit: 1}, reg.Bonuses("elf", "rogue"))
	assert.Equal(t, ruleset.Bonuses{}, reg.Bonuses("orc", "bard"))
	assert.Equal(t, 30, reg.ResourceMax("warrior", "stamina", 3))
	assert.Zero(t, reg.ResourceMax("warrior", "mana", 3))
}

func TestLoadClasses_RejectsNegativeResource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "id: bad\nname: Bad\nresources:\n  mana: -1\n")
	_, err := ruleset.LoadClasses(dir)
	assert.ErrorContains(t, err, "must be >= 0")
}

func TestLoadRaces_RequiresID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "anon.yaml", "name: Nobody\n")
	_, err := ruleset.LoadRaces(dir)
	assert.ErrorContains(t, err, "must not be empty")
}

func TestLoadRaces_MissingDir(t *testing.T) {
	_, err := ruleset.LoadRaces(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
