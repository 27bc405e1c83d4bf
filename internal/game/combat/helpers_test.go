package combat_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/game/combat"
)

// thresholdRoller succeeds every Percent check at or above threshold, rolls
// the minimum of every range and always picks index 0.
type thresholdRoller struct {
	threshold int
	percents  int
}

func newRoller() *thresholdRoller { return &thresholdRoller{threshold: 50} }

func (r *thresholdRoller) Percent(chance int) bool {
	r.percents++
	return chance >= r.threshold
}

func (r *thresholdRoller) Between(lo, hi int) int {
	if hi < lo {
		return hi
	}
	return lo
}

func (r *thresholdRoller) Intn(int) int { return 0 }

type fakeConn struct {
	id          string
	valid       bool
	connectedAt time.Time
}

func (c *fakeConn) ID() string             { return c.id }
func (c *fakeConn) Valid() bool            { return c.valid }
func (c *fakeConn) ConnectedAt() time.Time { return c.connectedAt }

type fakePlayer struct {
	uid        string
	name       string
	room       string
	level      int
	hp, maxHP  int
	xp         int
	stats      combat.Stats
	weapon     combat.Weapon
	armor      []combat.ArmorPiece
	inCombat   bool
	dodgeBonus int
}

func (p *fakePlayer) UID() string                { return p.uid }
func (p *fakePlayer) Name() string               { return p.name }
func (p *fakePlayer) RoomID() string             { return p.room }
func (p *fakePlayer) Level() int                 { return p.level }
func (p *fakePlayer) Health() int                { return p.hp }
func (p *fakePlayer) MaxHealth() int             { return p.maxHP }
func (p *fakePlayer) SetHealth(hp int)           { p.hp = hp }
func (p *fakePlayer) Experience() int            { return p.xp }
func (p *fakePlayer) AddExperience(xp int)       { p.xp += xp }
func (p *fakePlayer) Stats() combat.Stats        { return p.stats }
func (p *fakePlayer) DodgeBonus() int            { return p.dodgeBonus }
func (p *fakePlayer) CritBonus() int             { return 0 }
func (p *fakePlayer) DRBonus() int               { return 0 }
func (p *fakePlayer) HasteBonus() int            { return 0 }
func (p *fakePlayer) Weapon() combat.Weapon      { return p.weapon }
func (p *fakePlayer) Armor() []combat.ArmorPiece { return p.armor }
func (p *fakePlayer) InCombat() bool             { return p.inCombat }
func (p *fakePlayer) SetInCombat(in bool)        { p.inCombat = in }

type fakeUsers struct {
	players map[string]*fakePlayer
	conns   map[string][]combat.Conn
	saves   []combat.PlayerSnapshot
	revived []string
}

func (u *fakeUsers) Player(uid string) (combat.Player, bool) {
	p, ok := u.players[uid]
	if !ok {
		return nil, false
	}
	return p, true
}

func (u *fakeUsers) Connections(uid string) []combat.Conn { return u.conns[uid] }
func (u *fakeUsers) Save(s combat.PlayerSnapshot)         { u.saves = append(u.saves, s) }

func (u *fakeUsers) Revive(uid string) {
	u.revived = append(u.revived, uid)
	if p, ok := u.players[uid]; ok {
		p.hp = p.maxHP
	}
}

type fakeWorld struct {
	rooms map[string]bool
	npcs  map[string][]combat.NPCInfo
}

func (w *fakeWorld) RoomExists(roomID string) bool { return w.rooms[roomID] }

func (w *fakeWorld) NPC(roomID, id string) (combat.NPCInfo, bool) {
	for _, n := range w.npcs[roomID] {
		if n.InstanceID == id {
			return n, true
		}
	}
	return combat.NPCInfo{}, false
}

func (w *fakeWorld) NPCsInRoom(roomID string) []combat.NPCInfo { return w.npcs[roomID] }

func (w *fakeWorld) SetNPCHealth(roomID, id string, hp int) {
	for i, n := range w.npcs[roomID] {
		if n.InstanceID == id {
			w.npcs[roomID][i].Health = hp
		}
	}
}

func (w *fakeWorld) RemoveNPC(roomID, id string) {
	list := w.npcs[roomID]
	for i, n := range list {
		if n.InstanceID == id {
			w.npcs[roomID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (w *fakeWorld) PlayersInRoom(string) []string { return nil }

type fakeLoot struct {
	drops  []combat.Drop
	placed map[string][]combat.Drop
	// wearWeapon, when set, decides whether a weapon hit breaks the weapon.
	wearWeapon func(uid string) (string, bool)
}

func (l *fakeLoot) Generate(string, string) []combat.Drop { return l.drops }

func (l *fakeLoot) Place(roomID string, d combat.Drop) {
	if l.placed == nil {
		l.placed = make(map[string][]combat.Drop)
	}
	l.placed[roomID] = append(l.placed[roomID], d)
}

func (l *fakeLoot) WearWeapon(uid string) (string, bool) {
	if l.wearWeapon == nil {
		return "", false
	}
	return l.wearWeapon(uid)
}

func (l *fakeLoot) WearArmor(string) (string, bool) { return "", false }

type fakeAbilities struct {
	queued     map[string]combat.AbilityUse
	affordable bool
	consumed   []string
	ticks      int
}

func (a *fakeAbilities) Queued(uid string) (combat.AbilityUse, bool) {
	u, ok := a.queued[uid]
	return u, ok
}

func (a *fakeAbilities) Consume(uid, id string) bool {
	if !a.affordable {
		return false
	}
	delete(a.queued, uid)
	a.consumed = append(a.consumed, id)
	return true
}

func (a *fakeAbilities) TickCooldowns()                         { a.ticks++ }
func (a *fakeAbilities) Proc(string, combat.Weapon, string) int { return 0 }

type fakeNotifier struct {
	mu    sync.Mutex
	lines map[string][]string
}

func (n *fakeNotifier) Send(uid, line string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lines == nil {
		n.lines = make(map[string][]string)
	}
	n.lines[uid] = append(n.lines[uid], line)
}

func (n *fakeNotifier) Broadcast(roomID, except, line string) {
	n.Send("room:"+roomID, line)
}

func (n *fakeNotifier) Prompt(string) {}

// count returns how many of uid's lines contain substr.
func (n *fakeNotifier) count(uid, substr string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, l := range n.lines[uid] {
		if strings.Contains(l, substr) {
			c++
		}
	}
	return c
}

// harness wires a Coordinator over in-memory fakes.
type harness struct {
	now       time.Time
	roller    *thresholdRoller
	world     *fakeWorld
	users     *fakeUsers
	loot      *fakeLoot
	abilities *fakeAbilities
	notifier  *fakeNotifier
	registry  *combat.Registry
	combos    *combat.ComboTracker
	coord     *combat.Coordinator
}

const testRoom = "room-1"

func newHarness() *harness {
	h := &harness{
		now:       time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		roller:    newRoller(),
		world:     &fakeWorld{rooms: map[string]bool{testRoom: true}, npcs: map[string][]combat.NPCInfo{}},
		users:     &fakeUsers{players: map[string]*fakePlayer{}, conns: map[string][]combat.Conn{}},
		loot:      &fakeLoot{},
		abilities: &fakeAbilities{queued: map[string]combat.AbilityUse{}, affordable: true},
		notifier:  &fakeNotifier{},
	}
	logger := zap.NewNop()
	h.registry = combat.NewRegistry(h.world, logger)
	h.combos = combat.NewComboTracker(5)
	h.coord = combat.NewCoordinator(combat.DefaultConfig(), combat.Services{
		Registry:  h.registry,
		Combos:    h.combos,
		World:     h.world,
		Users:     h.users,
		Loot:      h.loot,
		Abilities: h.abilities,
		Notifier:  h.notifier,
		Roller:    h.roller,
		Logger:    logger,
		Clock:     func() time.Time { return h.now },
	})
	return h
}

// addPlayer adds a connected level-1 player whose sword always deals 20.
func (h *harness) addPlayer(uid string) *fakePlayer {
	p := &fakePlayer{
		uid:    uid,
		name:   strings.ToUpper(uid[:1]) + uid[1:],
		room:   testRoom,
		level:  1,
		hp:     500,
		maxHP:  500,
		stats:  combat.Stats{Str: 50, Dex: 10, Agi: 10},
		weapon: combat.Weapon{ID: "sword", Name: "sword", MinDamage: 10, MaxDamage: 10, EnergyCost: 250},
	}
	h.users.players[uid] = p
	h.users.conns[uid] = []combat.Conn{&fakeConn{id: uid + "-c1", valid: true, connectedAt: h.now}}
	return p
}

// addNPC registers an NPC in testRoom.
func (h *harness) addNPC(id string, hp, xp int, hostile bool) {
	h.world.npcs[testRoom] = append(h.world.npcs[testRoom], combat.NPCInfo{
		InstanceID: id,
		TemplateID: "tmpl-" + id,
		Name:       "Goblin " + id,
		Level:      1,
		Health:     hp,
		MaxHealth:  hp,
		MinDamage:  2,
		MaxDamage:  2,
		Hostile:    hostile,
		Experience: xp,
	})
}

func (h *harness) disconnect(uid string) {
	for _, c := range h.users.conns[uid] {
		c.(*fakeConn).valid = false
	}
}

func (h *harness) tick() combat.TickReport {
	return h.coord.ProcessTick(context.Background(), h.now)
}
