package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestResolve_NamesAndAliases(t *testing.T) {
	r := DefaultRegistry()
	cases := map[string]string{
		"attack": HandlerAttack,
		"kill":   HandlerAttack,
		"K":      HandlerAttack,
		"run":    HandlerFlee,
		"bash":   HandlerBash,
		"cast":   HandlerUse,
		"cd":     HandlerCooldowns,
		"score":  HandlerPrompt,
		"?":      HandlerHelp,
		"exit":   HandlerQuit,
	}
	for input, handler := range cases {
		cmd, ok := r.Resolve(input)
		require.True(t, ok, input)
		assert.Equal(t, handler, cmd.Handler, input)
	}
	_, ok := r.Resolve("north")
	assert.False(t, ok)
}

func TestNewRegistry_Collisions(t *testing.T) {
	_, err := NewRegistry([]Command{
		{Name: "attack", Handler: HandlerAttack},
		{Name: "attack", Handler: HandlerAttack},
	})
	assert.ErrorContains(t, err, `duplicate command name: "attack"`)

	_, err = NewRegistry([]Command{
		{Name: "attack", Aliases: []string{"k"}, Handler: HandlerAttack},
		{Name: "kick", Aliases: []string{"k"}, Handler: HandlerUse},
	})
	assert.ErrorContains(t, err, `duplicate alias "k"`)

	_, err = NewRegistry([]Command{
		{Name: "flee", Aliases: []string{"bash"}, Handler: HandlerFlee},
		{Name: "bash", Handler: HandlerBash},
	})
	assert.ErrorContains(t, err, "conflicts with an alias")

	_, err = NewRegistry([]Command{{Name: "noop"}})
	assert.Error(t, err)
}

func TestCommands_SortedAndGrouped(t *testing.T) {
	r := DefaultRegistry()
	cmds := r.Commands()
	require.Len(t, cmds, len(BuiltinCommands()))
	for i := 1; i < len(cmds); i++ {
		assert.Less(t, cmds[i-1].Name, cmds[i].Name)
	}
	byCat := r.CommandsByCategory()
	assert.Len(t, byCat[CategoryCombat], 4)
	assert.Len(t, byCat[CategorySystem], 2)
}

func TestHelpLines(t *testing.T) {
	lines := DefaultRegistry().HelpLines()
	require.NotEmpty(t, lines)
	assert.Equal(t, "Combat:", lines[0])
	assert.Equal(t, "  attack (kill, k, hit) - Start fighting an NPC, or switch to a new target", lines[1])
	assert.Contains(t, lines, "System:")
}

func TestPropertyEveryAliasResolvesToOwner(t *testing.T) {
	r := DefaultRegistry()
	builtins := BuiltinCommands()
	rapid.Check(t, func(rt *rapid.T) {
		cmd := rapid.SampledFrom(builtins).Draw(rt, "cmd")
		for _, alias := range cmd.Aliases {
			got, ok := r.Resolve(alias)
			if !ok || got.Name != cmd.Name {
				rt.Fatalf("alias %q resolved to %v", alias, got)
			}
		}
	})
}
