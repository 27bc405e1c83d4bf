package gameserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/fray/internal/game/command"
)

func newDispatcher(t *testing.T, h *harness) *Dispatcher {
	return NewDispatcher(command.DefaultRegistry(), h.combat, h.login, h.abilities, h.content.Abilities, h.notifier, zaptest.NewLogger(t))
}

func TestDispatch_RoutesCombatCommands(t *testing.T) {
	h := newHarness(t)
	d := newDispatcher(t, h)
	conn := h.join("u1", "cellar")
	drain(conn)

	require.True(t, d.Dispatch("u1", "kill guard"))
	assert.True(t, h.coord.InCombat("u1"))
	assert.True(t, d.Dispatch("u1", "BA"))
	require.True(t, d.Dispatch("u1", "cast fire"))
	assert.True(t, containsLine(drain(conn), "You prepare Fireball."))

	assert.True(t, d.Dispatch("u1", "run"))
	h.runTick()
	assert.False(t, h.coord.InCombat("u1"))
}

func TestDispatch_UsageAndUnknown(t *testing.T) {
	h := newHarness(t)
	d := newDispatcher(t, h)
	conn := h.join("u1", "cellar")
	drain(conn)

	assert.False(t, d.Dispatch("u1", ""))
	assert.False(t, d.Dispatch("u1", "attack"))
	assert.False(t, d.Dispatch("u1", "dance wildly"))
	assert.Equal(t, []string{
		"Usage: attack <target>",
		`Unknown command "dance". Type help for a list.`,
	}, drain(conn))
}

func TestDispatch_StatusCommands(t *testing.T) {
	h := newHarness(t)
	d := newDispatcher(t, h)
	conn := h.join("u1", "cellar")
	drain(conn)

	require.True(t, d.Dispatch("u1", "score"))
	assert.Equal(t, []string{"<40/40hp 20/20mana 10/10stamina>"}, drain(conn))

	require.True(t, d.Dispatch("u1", "cd"))
	assert.Equal(t, []string{"All of your abilities are ready."}, drain(conn))

	require.True(t, d.Dispatch("u1", "attack guard"))
	require.True(t, d.Dispatch("u1", "use fireball"))
	h.runTick()
	drain(conn)
	require.True(t, d.Dispatch("u1", "cooldowns"))
	assert.Equal(t, []string{"Fireball: 2 ticks"}, drain(conn))

	require.True(t, d.Dispatch("u1", "?"))
	lines := drain(conn)
	require.NotEmpty(t, lines)
	assert.Equal(t, "Combat:", lines[0])
	assert.True(t, containsLine(lines, "quit (exit)"), lines)
}

func TestDispatch_QuitEndsFight(t *testing.T) {
	h := newHarness(t)
	d := newDispatcher(t, h)
	h.join("u1", "cellar")

	require.True(t, d.Dispatch("u1", "attack rat"))
	require.True(t, d.Dispatch("u1", "exit"))
	assert.False(t, h.coord.InCombat("u1"))
	_, ok := h.sessions.GetPlayer("u1")
	assert.False(t, ok)

	assert.False(t, d.Dispatch("u1", "quit"), "already gone")
}

func TestDispatch_StartingKitIsWieldedInCombat(t *testing.T) {
	h := newHarness(t)
	d := newDispatcher(t, h)
	spec := heroSpec("u1", "cellar")
	spec.Kit = []string{"cleaver", "jerkin", "pelt", "ghost"}
	conn, _, err := h.login.Login(context.Background(), spec)
	require.NoError(t, err)
	drain(conn)

	p, _ := h.sessions.GetPlayer("u1")
	wielded, ok := p.Equipment.Weapon()
	require.True(t, ok)
	assert.Equal(t, "cleaver", wielded.ItemDefID)
	worn := p.Equipment.Armor()
	require.Len(t, worn, 1)
	assert.Equal(t, "jerkin", worn[0].Item.ItemDefID)

	require.True(t, d.Dispatch("u1", "kill guard"))
	h.runTick()
	lines := drain(conn)
	assert.True(t, containsLine(lines, "Your a butcher's cleaver hits guard"), lines)
	wielded, _ = p.Equipment.Weapon()
	assert.Equal(t, 49, wielded.Durability)

	other := heroSpec("u2", "square")
	other.Kit = []string{"cleaver"}
	_, _, err = h.login.Login(context.Background(), other)
	require.NoError(t, err)
	p2, _ := h.sessions.GetPlayer("u2")
	_, ok = p2.Equipment.Weapon()
	assert.False(t, ok, "the cleaver is limited to one copy")
	assert.Equal(t, 1, h.gen.Live("cleaver"))
}
