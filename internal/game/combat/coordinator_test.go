package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/fray/internal/game/combat"
)

func TestEngage_CreatesSessionAndTracksTargeter(t *testing.T) {
	h := newHarness()
	p := h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, false)

	require.True(t, h.coord.Engage("alice", "n1"))
	assert.True(t, h.coord.InCombat("alice"))
	assert.True(t, p.inCombat, "in-combat flag is set on engage")
	assert.Equal(t, []string{"alice"}, h.registry.Targeters(combat.EntityKey{RoomID: testRoom, InstanceID: "n1"}))
	require.NotEmpty(t, h.users.saves)
	assert.True(t, h.users.saves[len(h.users.saves)-1].InCombat)
}

func TestEngage_MissingTargetFailsWithChatLine(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")

	assert.False(t, h.coord.Engage("alice", "ghost"))
	assert.False(t, h.coord.InCombat("alice"))
	assert.Equal(t, 1, h.notifier.count("alice", "They aren't here."))
}

func TestEngage_RetargetDoesNotDuplicateOpponents(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, false)
	h.addNPC("n2", 1000, 10, false)

	require.True(t, h.coord.Engage("alice", "n1"))
	require.True(t, h.coord.Engage("alice", "n2"))
	require.True(t, h.coord.Engage("alice", "n1"))

	s, ok := h.coord.Session("alice")
	require.True(t, ok)
	assert.Equal(t, []string{"room-1/n1", "room-1/n2"}, s.Opponents, "primary first, no duplicates")
	assert.Equal(t, 1, h.coord.SessionCount())
}

func TestDeath_ExperienceSplitExcludesDisconnectedTargeter(t *testing.T) {
	h := newHarness()
	a := h.addPlayer("alice")
	b := h.addPlayer("bob")
	c := h.addPlayer("carol")
	h.addNPC("n1", 20, 100, false)

	require.True(t, h.coord.Engage("alice", "n1"))
	require.True(t, h.coord.Engage("bob", "n1"))
	require.True(t, h.coord.Engage("carol", "n1"))
	h.disconnect("carol")

	report := h.tick()

	assert.Equal(t, 1, report.Kills)
	assert.Equal(t, 50, a.xp)
	assert.Equal(t, 50, b.xp)
	assert.Equal(t, 0, c.xp, "disconnected targeter is excluded from the split")
	assert.Equal(t, 0, h.registry.Len(), "registry record cleaned up")
	_, stillThere := h.world.NPC(testRoom, "n1")
	assert.False(t, stillThere, "dead NPC removed from room")
	assert.False(t, h.coord.InCombat("alice"))
	assert.False(t, h.coord.InCombat("bob"))
}

func TestDeath_KillerIncludedAndLootPlaced(t *testing.T) {
	h := newHarness()
	a := h.addPlayer("alice")
	h.addNPC("n1", 20, 30, false)
	h.loot.drops = []combat.Drop{{InstanceID: "d1", ItemID: "rusty_dagger", Name: "a rusty dagger"}}

	require.True(t, h.coord.Engage("alice", "n1"))
	h.tick()

	assert.Equal(t, 30, a.xp)
	require.Len(t, h.loot.placed[testRoom], 1)
	assert.Equal(t, "d1", h.loot.placed[testRoom][0].InstanceID)
	assert.Equal(t, 1, h.notifier.count("room:"+testRoom, "drops a rusty dagger"))
}

func TestDeath_ClearsComboPoints(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	h.addNPC("n1", 40, 10, false)

	require.True(t, h.coord.Engage("alice", "n1"))
	h.tick()
	assert.Equal(t, combat.ComboState{Target: "n1", Points: 1}, h.combos.Get("alice"))

	h.tick()
	assert.Equal(t, combat.ComboState{}, h.combos.Get("alice"))
	assert.False(t, h.coord.InCombat("alice"))
}

func TestFleeing_SessionSurvivesWhileHostileOpponentRemains(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, true)

	require.True(t, h.coord.Engage("alice", "n1"))
	h.tick()
	require.True(t, h.coord.Break("alice"))

	for i := 0; i < 3; i++ {
		h.now = h.now.Add(2 * time.Second)
		report := h.tick()
		assert.Empty(t, report.Ended)
		s, ok := h.coord.Session("alice")
		require.True(t, ok)
		assert.Equal(t, "fleeing", s.State)
	}
	assert.Positive(t, h.notifier.count("alice", "Goblin n1 hits you"), "fleeing player is still attacked")

	h.world.RemoveNPC(testRoom, "n1")
	report := h.tick()
	assert.Equal(t, []string{"alice"}, report.Ended)
	assert.False(t, h.coord.InCombat("alice"))
}

func TestFleeing_FromUnprovokedPassiveOpponentEnds(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, false)

	require.True(t, h.coord.Engage("alice", "n1"))
	require.True(t, h.coord.Break("alice"))
	report := h.tick()
	assert.Equal(t, []string{"alice"}, report.Ended)
}

func TestTransfer_PreservesOpponentsWithoutSecondSession(t *testing.T) {
	h := newHarness()
	p := h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, false)
	h.addNPC("n2", 1000, 10, false)

	require.True(t, h.coord.Engage("alice", "n1"))
	require.True(t, h.coord.Engage("alice", "n2"))
	h.tick()
	before, ok := h.coord.Session("alice")
	require.True(t, ok)

	require.True(t, h.coord.BeginTransfer("alice", "alice-c1"))
	h.disconnect("alice")
	h.now = h.now.Add(500 * time.Millisecond)
	h.users.conns["alice"] = append(h.users.conns["alice"], &fakeConn{id: "alice-c2", valid: true, connectedAt: h.now})

	assert.Equal(t, combat.ReconnectResumed, h.coord.Reconnect("alice"))
	assert.True(t, p.inCombat)

	h.now = h.now.Add(time.Second)
	h.tick()

	after, ok := h.coord.Session("alice")
	require.True(t, ok)
	assert.Equal(t, before.Opponents, after.Opponents)
	assert.Equal(t, 1, h.coord.SessionCount())
	assert.Equal(t, before.Round+1, after.Round)
	assert.Equal(t, "none", after.Transfer)
}

func TestTransfer_PendingToleratedUntilDeadline(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, false)

	require.True(t, h.coord.Engage("alice", "n1"))
	require.True(t, h.coord.BeginTransfer("alice", "alice-c1"))
	h.disconnect("alice")

	h.now = h.now.Add(2 * time.Second)
	report := h.tick()
	assert.Empty(t, report.Ended)
	s, ok := h.coord.Session("alice")
	require.True(t, ok)
	assert.Equal(t, "pending", s.Transfer)
	assert.Equal(t, 0, s.Round, "round is skipped while the transfer is pending")

	h.now = h.now.Add(time.Second)
	report = h.tick()
	assert.Equal(t, []string{"alice"}, report.Ended)
}

func TestGraceWindow_EndsSessionAfterDeadline(t *testing.T) {
	h := newHarness()
	p := h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, false)

	require.True(t, h.coord.Engage("alice", "n1"))
	h.disconnect("alice")

	assert.Empty(t, h.tick().Ended)
	h.now = h.now.Add(4 * time.Second)
	assert.Empty(t, h.tick().Ended)
	h.now = h.now.Add(time.Second)
	assert.Equal(t, []string{"alice"}, h.tick().Ended)
	assert.False(t, p.inCombat)
}

func TestCounterattack_SharedNPCAttacksOncePerTick(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	h.addPlayer("bob")
	h.addNPC("n1", 1000, 10, true)

	require.True(t, h.coord.Engage("alice", "n1"))
	require.True(t, h.coord.Engage("bob", "n1"))

	h.tick()
	total := h.notifier.count("alice", "Goblin n1 hits you") + h.notifier.count("bob", "Goblin n1 hits you")
	assert.Equal(t, 1, total)

	h.tick()
	total = h.notifier.count("alice", "Goblin n1 hits you") + h.notifier.count("bob", "Goblin n1 hits you")
	assert.Equal(t, 2, total, "the gate reopens each tick")
}

func TestCounterattack_PassiveNPCRetaliatesOnceProvoked(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	h.world.npcs[testRoom] = append(h.world.npcs[testRoom], combat.NPCInfo{
		InstanceID: "rabbit", Name: "Rabbit", Level: 1, Health: 1000, MaxHealth: 1000,
		MinDamage: 1, MaxDamage: 1, Passive: true,
	})

	require.True(t, h.coord.Engage("alice", "rabbit"))
	h.tick()
	assert.Equal(t, 1, h.notifier.count("alice", "Rabbit hits you"))
}

func TestPlayerDeath_EndsSessionAndRevives(t *testing.T) {
	h := newHarness()
	p := h.addPlayer("alice")
	p.hp = 2
	h.addNPC("n1", 1000, 10, true)

	require.True(t, h.coord.Engage("alice", "n1"))
	report := h.tick()

	assert.Equal(t, []string{"alice"}, report.Ended)
	assert.Equal(t, []string{"alice"}, h.users.revived)
	assert.Equal(t, 1, h.notifier.count("alice", "You have been slain"))
	assert.Empty(t, h.registry.Targeters(combat.EntityKey{RoomID: testRoom, InstanceID: "n1"}))
}

func TestReconnect_ReconstructsFromPersistedFlag(t *testing.T) {
	h := newHarness()
	p := h.addPlayer("alice")
	p.inCombat = true
	h.addNPC("n0", 1000, 10, false)
	h.addNPC("n1", 1000, 10, true)

	assert.Equal(t, combat.ReconnectReconstructed, h.coord.Reconnect("alice"))
	s, ok := h.coord.Session("alice")
	require.True(t, ok)
	assert.Equal(t, []string{"room-1/n1"}, s.Opponents, "first hostile NPC is chosen")
	assert.Equal(t, 1, h.notifier.count("alice", "You are still fighting"))
}

func TestReconnect_NoHostileClearsFlag(t *testing.T) {
	h := newHarness()
	p := h.addPlayer("alice")
	p.inCombat = true
	h.addNPC("n0", 1000, 10, false)

	assert.Equal(t, combat.ReconnectNone, h.coord.Reconnect("alice"))
	assert.False(t, p.inCombat)
	assert.False(t, h.coord.InCombat("alice"))
}

func TestAbility_ResourceExhaustionFallsBackToWeapon(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, false)
	h.abilities.affordable = false
	h.abilities.queued["alice"] = combat.AbilityUse{ID: "fireball", Name: "fireball", Kind: combat.AbilitySpell, MinDamage: 30, MaxDamage: 30, Resource: "mana"}

	require.True(t, h.coord.Engage("alice", "n1"))
	h.tick()

	assert.Equal(t, 1, h.notifier.count("alice", "You lack the mana to use fireball"))
	assert.Equal(t, 1, h.notifier.count("alice", "Your sword hits"))
	n, _ := h.world.NPC(testRoom, "n1")
	assert.Equal(t, 980, n.Health)
}

func TestAbility_SpellBypassesDamageReduction(t *testing.T) {
	h := newHarness()
	p := h.addPlayer("alice")
	p.stats.Int = 40
	p.stats.Wis = 16
	h.world.npcs[testRoom] = append(h.world.npcs[testRoom], combat.NPCInfo{
		InstanceID: "golem", Name: "Golem", Level: 1, Health: 1000, MaxHealth: 1000,
		MinDamage: 1, MaxDamage: 1, DamageReduction: 15,
	})
	h.abilities.queued["alice"] = combat.AbilityUse{ID: "bolt", Name: "bolt", Kind: combat.AbilitySpell, MinDamage: 10, MaxDamage: 10, Resource: "mana"}

	require.True(t, h.coord.Engage("alice", "golem"))
	h.tick()

	// 10 + 40/4 + 16/8 = 22, DR ignored
	n, _ := h.world.NPC(testRoom, "golem")
	assert.Equal(t, 978, n.Health)
	assert.Equal(t, []string{"bolt"}, h.abilities.consumed)
}

func TestAbility_FinisherSpendsCombo(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, false)

	require.True(t, h.coord.Engage("alice", "n1"))
	h.tick()
	require.Equal(t, 1, h.combos.Get("alice").Points)

	h.abilities.queued["alice"] = combat.AbilityUse{ID: "eviscerate", Name: "eviscerate", Kind: combat.AbilityFinisher, MinDamage: 10, MaxDamage: 10, Resource: "stamina"}
	h.tick()

	assert.Equal(t, []string{"eviscerate"}, h.abilities.consumed)
	// finisher spent the point; the second swing of the round built a new one
	assert.Equal(t, combat.ComboState{Target: "n1", Points: 1}, h.combos.Get("alice"))
}

func TestBash_DoublesDamageForOneRound(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, false)

	require.True(t, h.coord.Engage("alice", "n1"))
	require.True(t, h.coord.Bash("alice"))
	h.tick()

	n, _ := h.world.NPC(testRoom, "n1")
	assert.Equal(t, 960, n.Health, "(10 + 50/5) * 2")

	h.tick()
	n, _ = h.world.NPC(testRoom, "n1")
	assert.Less(t, n.Health, 960)
	assert.Equal(t, 0, (960-n.Health)%20, "heavy mode cleared after one round")
}

func TestBreak_WithoutSessionReportsFailure(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	assert.False(t, h.coord.Break("alice"))
	assert.False(t, h.coord.Bash("alice"))
	assert.Equal(t, 2, h.notifier.count("alice", "You aren't fighting anyone."))
}

func TestProcessTick_AdvancesCooldownsAndEndsEmptySessions(t *testing.T) {
	h := newHarness()
	h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, false)
	require.True(t, h.coord.Engage("alice", "n1"))

	h.world.RemoveNPC(testRoom, "n1")
	report := h.tick()
	assert.Equal(t, 1, h.abilities.ticks)
	assert.Equal(t, []string{"alice"}, report.Ended)
	assert.Equal(t, 0, h.coord.SessionCount())
	assert.Equal(t, 0, h.registry.Len(), "record of an NPC that left the room is released")
}

func TestDisengage_EndsImmediately(t *testing.T) {
	h := newHarness()
	p := h.addPlayer("alice")
	h.addNPC("n1", 1000, 10, false)
	require.True(t, h.coord.Engage("alice", "n1"))

	assert.True(t, h.coord.Disengage("alice", "quit"))
	assert.False(t, h.coord.InCombat("alice"))
	assert.False(t, p.inCombat)
	assert.Empty(t, h.registry.Targeters(combat.EntityKey{RoomID: testRoom, InstanceID: "n1"}))
}
