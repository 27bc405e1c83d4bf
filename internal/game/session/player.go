package session

import (
	"sort"
	"sync"

	"github.com/cory-johannsen/fray/internal/game/inventory"
)

// Stats holds a character's five combat attributes.
type Stats struct {
	Str int
	Dex int
	Agi int
	Int int
	Wis int
}

// Pool is a spendable resource such as mana or stamina.
//
// Invariant: 0 <= Current <= Max.
type Pool struct {
	Current int
	Max     int
}

// PlayerSession is a logged-in character. Identity fields are immutable after
// AddPlayer; everything else goes through the mutex-guarded methods.
type PlayerSession struct {
	UID   string
	Name  string
	Race  string
	Class string
	// CharacterID is the database ID used for persistence.
	CharacterID int64
	Equipment   *inventory.Equipment

	mu         sync.Mutex
	roomID     string
	level      int
	stats      Stats
	hp         int
	maxHP      int
	experience int
	inCombat   bool
	pools      map[string]*Pool
}

// PlayerSpec is the persisted shape a PlayerSession is built from.
type PlayerSpec struct {
	UID         string
	Name        string
	Race        string
	Class       string
	CharacterID int64
	RoomID      string
	Level       int
	Stats       Stats
	HP          int
	MaxHP       int
	Experience  int
	InCombat    bool
	// Pools maps resource name to maximum; pools start full.
	Pools map[string]int
	// Kit lists item IDs equipped when the session is first created.
	Kit []string
}

// NewPlayerSession builds a session from spec with empty equipment.
//
// Postcondition: HP is clamped to [0, MaxHP]; Level is at least 1.
func NewPlayerSession(spec PlayerSpec) *PlayerSession {
	p := &PlayerSession{
		UID:         spec.UID,
		Name:        spec.Name,
		Race:        spec.Race,
		Class:       spec.Class,
		CharacterID: spec.CharacterID,
		Equipment:   inventory.NewEquipment(),
		roomID:      spec.RoomID,
		level:       spec.Level,
		stats:       spec.Stats,
		maxHP:       spec.MaxHP,
		experience:  spec.Experience,
		inCombat:    spec.InCombat,
		pools:       make(map[string]*Pool, len(spec.Pools)),
	}
	if p.level < 1 {
		p.level = 1
	}
	p.hp = clampInt(spec.HP, 0, spec.MaxHP)
	for name, limit := range spec.Pools {
		p.pools[name] = &Pool{Current: limit, Max: limit}
	}
	return p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoomID returns the player's current room.
func (p *PlayerSession) RoomID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roomID
}

func (p *PlayerSession) setRoom(roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roomID = roomID
}

// Level returns the character level.
func (p *PlayerSession) Level() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Stats returns the character's attributes.
func (p *PlayerSession) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Health returns current hit points.
func (p *PlayerSession) Health() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hp
}

// MaxHealth returns maximum hit points.
func (p *PlayerSession) MaxHealth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxHP
}

// SetHealth sets hit points, clamped to [0, MaxHealth].
func (p *PlayerSession) SetHealth(hp int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hp = clampInt(hp, 0, p.maxHP)
}

// Experience returns accumulated experience.
func (p *PlayerSession) Experience() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.experience
}

// AddExperience adds xp. Negative amounts are ignored.
func (p *PlayerSession) AddExperience(xp int) {
	if xp <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.experience += xp
}

// InCombat returns the persisted in-combat flag.
func (p *PlayerSession) InCombat() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inCombat
}

// SetInCombat sets the persisted in-combat flag.
func (p *PlayerSession) SetInCombat(in bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inCombat = in
}

// Resource returns the named pool.
func (p *PlayerSession) Resource(name string) (Pool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pool, ok := p.pools[name]
	if !ok {
		return Pool{}, false
	}
	return *pool, true
}

// SpendResource deducts cost from the named pool.
//
// Postcondition: returns false and changes nothing when the pool is missing
// or holds less than cost.
func (p *PlayerSession) SpendResource(name string, cost int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	pool, ok := p.pools[name]
	if !ok || pool.Current < cost {
		return false
	}
	pool.Current -= cost
	return true
}

// Regenerate restores amount to every pool, capped at each pool's max.
func (p *PlayerSession) Regenerate(amount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pool := range p.pools {
		pool.Current = clampInt(pool.Current+amount, 0, pool.Max)
	}
}

// ResourceNames returns the pool names, sorted.
func (p *PlayerSession) ResourceNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.pools))
	for name := range p.pools {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
