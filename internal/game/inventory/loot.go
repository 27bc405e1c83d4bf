package inventory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/fray/internal/game/npc"
)

// Rand is the randomness a Generator needs. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Generator turns NPC loot tables into item instances while enforcing each
// item's global creation limit and drop cooldown.
// All methods are safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	reg      *Registry
	rng      Rand
	newID    func() string
	live     map[string]int
	lastDrop map[string]time.Time
}

// NewGenerator creates a Generator over reg.
//
// Precondition: reg and rng must be non-nil.
func NewGenerator(reg *Registry, rng Rand) *Generator {
	return &Generator{
		reg:      reg,
		rng:      rng,
		newID:    uuid.NewString,
		live:     make(map[string]int),
		lastDrop: make(map[string]time.Time),
	}
}

// Generate rolls table once per entry and returns the instances created.
// An entry is skipped when its item is unknown, still on cooldown, or at its
// limit; quantity is truncated at the limit.
//
// Postcondition: Live(id) <= def.Limit for every limited item.
func (g *Generator) Generate(table *npc.LootTable, now time.Time) []ItemInstance {
	if table == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []ItemInstance
	for _, entry := range table.Items {
		def, ok := g.reg.Item(entry.ItemID)
		if !ok {
			continue
		}
		if last, ok := g.lastDrop[def.ID]; ok && def.Cooldown > 0 && now.Before(last.Add(def.Cooldown)) {
			continue
		}
		if g.rng.Float64() >= entry.Chance*def.EffectiveDropRate() {
			continue
		}
		lo, hi := entry.Quantity()
		qty := lo
		if hi > lo {
			qty += g.rng.Intn(hi - lo + 1)
		}
		created := 0
		for i := 0; i < qty; i++ {
			if def.Limit > 0 && g.live[def.ID] >= def.Limit {
				break
			}
			out = append(out, NewInstance(g.newID(), def))
			g.live[def.ID]++
			created++
		}
		if created > 0 {
			g.lastDrop[def.ID] = now
		}
	}
	return out
}

// Issue creates one instance of defID outside any loot table, such as a
// starting weapon. Drop cooldowns do not apply.
//
// Postcondition: returns false when defID is unknown or at its limit;
// otherwise the instance counts toward Live(defID).
func (g *Generator) Issue(defID string) (ItemInstance, bool) {
	def, ok := g.reg.Item(defID)
	if !ok {
		return ItemInstance{}, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if def.Limit > 0 && g.live[def.ID] >= def.Limit {
		return ItemInstance{}, false
	}
	g.live[def.ID]++
	return NewInstance(g.newID(), def), true
}

// Track counts an instance created outside Generate and Issue toward its
// item's limit.
func (g *Generator) Track(defID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.live[defID]++
}

// Release removes a destroyed instance from its item's live count.
func (g *Generator) Release(defID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.live[defID] > 0 {
		g.live[defID]--
	}
}

// Live returns how many instances of defID currently exist.
func (g *Generator) Live(defID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.live[defID]
}
