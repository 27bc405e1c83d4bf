package gameserver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/fray/internal/config"
	"github.com/cory-johannsen/fray/internal/game/ability"
	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/game/dice"
	"github.com/cory-johannsen/fray/internal/game/inventory"
	"github.com/cory-johannsen/fray/internal/game/npc"
	"github.com/cory-johannsen/fray/internal/game/session"
	"github.com/cory-johannsen/fray/internal/observability"
	"github.com/cory-johannsen/fray/internal/scripting"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testContent is a two-room town: the square is empty, the cellar holds a
// one-hit hostile rat that drops a pelt and a tough passive guard.
var testContent = map[string]string{
	"zones/town.yaml": `
zone:
  id: town
  name: Town
  start_room: square
  rooms:
    - id: square
      title: Town Square
      description: A cobbled square.
    - id: cellar
      title: Cellar
      description: Damp and dark.
      spawns:
        - template: rat
          count: 1
          respawn_after: 1m
        - template: guard
          count: 1
`,
	"npcs/rat.yaml": `
id: rat
name: rat
level: 1
max_hp: 1
damage: {min: 1, max: 2}
stats: {str: 5, dex: 5, agi: 5, int: 1, wis: 1}
hostile: true
experience: 10
loot:
  items:
    - item: pelt
      chance: 1.0
`,
	"npcs/guard.yaml": `
id: guard
name: guard
level: 5
max_hp: 500
damage: {min: 1, max: 3}
stats: {str: 10, dex: 10, agi: 10, int: 10, wis: 10}
passive: true
experience: 50
`,
	"items/pelt.yaml": `
id: pelt
name: a rat pelt
kind: junk
`,
	"items/cleaver.yaml": `
id: cleaver
name: a butcher's cleaver
kind: weapon
weapon:
  min_damage: 6
  max_damage: 6
  energy_cost: 250
durability: 50
limit: 1
`,
	"items/jerkin.yaml": `
id: jerkin
name: a leather jerkin
kind: armor
armor:
  slot: body
  armor_type: leather
durability: 80
`,
	"items/dagger.yaml": `
id: dagger
name: a rusty dagger
kind: weapon
weapon:
  min_damage: 2
  max_damage: 4
  energy_cost: 200
  proc: venom
durability: 1
`,
	"abilities/core.yaml": `
abilities:
  - id: fireball
    name: Fireball
    kind: spell
    min_damage: 8
    max_damage: 12
    resource: mana
    cost: 10
    cooldown: 2
`,
	"races/human.yaml": `
id: human
name: Human
crit_bonus: 1
`,
	"classes/warrior.yaml": `
id: warrior
name: Warrior
dr_bonus: 2
resources:
  stamina: 10
`,
	"scripts/procs.lua": `
function venom(ctx)
  return 3
end
`,
}

// writeContent lays files out under a fresh temp directory and returns the
// matching content config.
func writeContent(t *testing.T, files map[string]string) config.ContentConfig {
	t.Helper()
	root := t.TempDir()
	for _, sub := range []string{"zones", "npcs", "items", "abilities", "races", "classes", "scripts"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, sub), 0o755))
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(body), 0o644))
	}
	return config.ContentConfig{
		ZonesDir:     filepath.Join(root, "zones"),
		NPCsDir:      filepath.Join(root, "npcs"),
		ItemsDir:     filepath.Join(root, "items"),
		AbilitiesDir: filepath.Join(root, "abilities"),
		RacesDir:     filepath.Join(root, "races"),
		ClassesDir:   filepath.Join(root, "classes"),
		ScriptsDir:   filepath.Join(root, "scripts"),
	}
}

// midSource always lands in the middle of the range: every attack hits,
// nothing is dodged and nothing crits.
type midSource struct{}

func (midSource) Intn(n int) int { return n / 2 }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore is an in-memory StateStore.
type memStore struct {
	mu    sync.Mutex
	snaps map[string]combat.PlayerSnapshot
	saves int
	fail  error
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string]combat.PlayerSnapshot)}
}

func (m *memStore) Save(_ context.Context, snap combat.PlayerSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.snaps[snap.UID] = snap
	m.saves++
	return nil
}

func (m *memStore) Load(_ context.Context, uid string) (combat.PlayerSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[uid]
	if !ok {
		return combat.PlayerSnapshot{}, errors.New("not found")
	}
	return snap, nil
}

func (m *memStore) get(uid string) (combat.PlayerSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[uid]
	return snap, ok
}

// harness is a fully wired server over testContent with deterministic dice,
// a fake clock and an in-memory state store.
type harness struct {
	t         *testing.T
	clock     *fakeClock
	content   *Content
	sessions  *session.Manager
	npcs      *npc.Manager
	respawn   *npc.RespawnManager
	floor     *inventory.FloorManager
	gen       *inventory.Generator
	combos    *combat.ComboTracker
	coord     *combat.Coordinator
	abilities *ability.Service
	notifier  *ConnNotifier
	store     *memStore
	persister *StatePersister
	combat    *CombatHandler
	login     *LoginHandler
	tick      *TickManager
	reg       *prometheus.Registry
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithRate(t, RateConfig{PerSecond: 1000, Burst: 1000})
}

func newHarnessWithRate(t *testing.T, rc RateConfig) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	cc := writeContent(t, testContent)
	content, err := LoadContent(cc, logger)
	require.NoError(t, err)

	h := &harness{t: t, clock: &fakeClock{now: epoch}, content: content, store: newMemStore()}
	h.reg = prometheus.NewRegistry()
	metrics := observability.NewMetrics(h.reg)
	roller := dice.NewRoller(midSource{}, logger)

	h.sessions = session.NewManager()
	h.respawn = npc.NewRespawnManager(content.Spawns, content.Templates)
	h.npcs = ProvideNPCManager(content, h.respawn, logger)
	h.floor = inventory.NewFloorManager()
	h.gen = inventory.NewGenerator(content.Items, midRand{})
	h.combos = combat.NewComboTracker(5)
	h.persister = NewStatePersister(h.store, 16, logger, metrics)

	scripts := scripting.NewManager(roller, logger)
	t.Cleanup(scripts.Close)
	require.NoError(t, scripts.Load(ability.ProcScriptKey, cc.ScriptsDir, 0))
	h.abilities = ProvideAbilityService(content.Abilities, h.sessions, content.Items, scripts, logger)

	wa := NewWorldAdapter(content.World, h.npcs, h.respawn, h.sessions, h.clock.Now)
	h.notifier = NewConnNotifier(h.sessions, logger)
	cfg := combat.DefaultConfig()
	h.coord = combat.NewCoordinator(cfg, combat.Services{
		Registry:  combat.NewRegistry(wa, logger),
		Combos:    h.combos,
		World:     wa,
		Users:     NewUsersAdapter(h.sessions, content.Rules, content.Items, content.World, h.persister),
		Loot:      NewLootAdapter(h.gen, content.Items, h.floor, content.Templates, h.sessions, roller, h.clock.Now),
		Abilities: h.abilities,
		Notifier:  h.notifier,
		Roller:    roller,
		Logger:    logger,
		Metrics:   metrics,
		Clock:     h.clock.Now,
	})
	h.combat = NewCombatHandler(h.coord, h.abilities, content.Abilities, h.npcs, h.sessions, h.notifier, rc, logger)
	h.login = NewLoginHandler(h.sessions, h.coord, h.combos, h.abilities, h.combat, h.persister, NewOutfitter(content.Items, h.gen, logger), h.clock.Now, logger)
	h.tick = NewTickManager(time.Second, h.coord, h.npcs, h.respawn, h.sessions, h.notifier, h.clock.Now, logger)
	return h
}

// midRand makes every loot roll succeed with the minimum quantity.
type midRand struct{}

func (midRand) Float64() float64 { return 0 }
func (midRand) Intn(int) int     { return 0 }

func heroSpec(uid, room string) session.PlayerSpec {
	return session.PlayerSpec{
		UID:    uid,
		Name:   "Hero-" + uid,
		Race:   "human",
		Class:  "warrior",
		RoomID: room,
		Level:  3,
		Stats:  session.Stats{Str: 12, Dex: 12, Agi: 10, Int: 10, Wis: 10},
		HP:     40,
		MaxHP:  40,
		Pools:  map[string]int{"mana": 20, "stamina": 10},
	}
}

// join logs a player in and returns their connection.
func (h *harness) join(uid, room string) *session.Conn {
	h.t.Helper()
	conn, _, err := h.login.Login(context.Background(), heroSpec(uid, room))
	require.NoError(h.t, err)
	return conn
}

// npcID returns the instance id of the first live NPC of templateID in room.
func (h *harness) npcID(room, templateID string) string {
	h.t.Helper()
	for _, inst := range h.npcs.InstancesInRoom(room) {
		if inst.TemplateID == templateID {
			return inst.ID
		}
	}
	h.t.Fatalf("no %s in %s", templateID, room)
	return ""
}

func (h *harness) runTick() combat.TickReport {
	h.clock.Advance(time.Second)
	return h.tick.Tick(context.Background(), h.clock.Now())
}

// drain returns every line queued on conn.
func drain(conn *session.Conn) []string {
	var out []string
	for {
		select {
		case line, ok := <-conn.Events():
			if !ok {
				return out
			}
			out = append(out, line)
		default:
			return out
		}
	}
}
