package ability

import (
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/scripting"
)

// ProcScriptKey is the scripting VM key that holds weapon proc hooks.
const ProcScriptKey = "procs"

// Payer is a player whose resource pools pay ability costs.
//
// session.PlayerSession satisfies this interface.
type Payer interface {
	Level() int
	SpendResource(name string, cost int) bool
}

// PlayerLookup resolves a player id to its Payer.
type PlayerLookup func(uid string) (Payer, bool)

// ProcLookup returns the proc hook name for a weapon item id, or "".
type ProcLookup func(weaponID string) string

// QueueResult reports the outcome of Queue.
type QueueResult int

const (
	Queued QueueResult = iota
	Unknown
	OnCooldown
)

var _ combat.Abilities = (*Service)(nil)

// Service is the ability collaborator of the combat engine. It is safe for
// concurrent use.
type Service struct {
	reg     *Registry
	players PlayerLookup
	procs   ProcLookup
	scripts *scripting.Manager
	logger  *zap.Logger

	mu        sync.Mutex
	queue     map[string]string
	cooldowns map[string]map[string]int
}

// NewService creates a Service.
//
// Precondition: reg, players and logger must be non-nil. procs and scripts may
// be nil, disabling weapon procs.
func NewService(reg *Registry, players PlayerLookup, procs ProcLookup, scripts *scripting.Manager, logger *zap.Logger) *Service {
	return &Service{
		reg:       reg,
		players:   players,
		procs:     procs,
		scripts:   scripts,
		logger:    logger,
		queue:     make(map[string]string),
		cooldowns: make(map[string]map[string]int),
	}
}

// Queue arms abilityID for uid's next combat round, replacing any earlier
// queued ability.
//
// Postcondition: on Queued, Queued(uid) reports abilityID.
func (s *Service) Queue(uid, abilityID string) QueueResult {
	if _, ok := s.reg.Get(abilityID); !ok {
		return Unknown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cooldowns[uid][abilityID] > 0 {
		return OnCooldown
	}
	s.queue[uid] = abilityID
	return Queued
}

// Cancel clears uid's queued ability.
func (s *Service) Cancel(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queue, uid)
}

// Forget drops all ability state for uid.
func (s *Service) Forget(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queue, uid)
	delete(s.cooldowns, uid)
}

// Queued returns the ability uid has queued, if any.
func (s *Service) Queued(uid string) (combat.AbilityUse, bool) {
	s.mu.Lock()
	id, ok := s.queue[uid]
	s.mu.Unlock()
	if !ok {
		return combat.AbilityUse{}, false
	}
	d, ok := s.reg.Get(id)
	if !ok {
		return combat.AbilityUse{}, false
	}
	return d.Use(), true
}

// Consume dequeues abilityID and pays its cost from the player's pool. The
// queue entry is cleared whether or not the player can pay.
//
// Postcondition: returns true iff the cost was paid; the ability then starts
// its cooldown. On false the player's pools are unchanged.
func (s *Service) Consume(uid, abilityID string) bool {
	d, ok := s.reg.Get(abilityID)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue[uid] != abilityID {
		return false
	}
	delete(s.queue, uid)

	if d.Cost > 0 {
		p, ok := s.players(uid)
		if !ok || !p.SpendResource(d.Resource, d.Cost) {
			return false
		}
	}
	if d.Cooldown > 0 {
		cds, ok := s.cooldowns[uid]
		if !ok {
			cds = make(map[string]int)
			s.cooldowns[uid] = cds
		}
		cds[abilityID] = d.Cooldown
	}
	return true
}

// Cooldown returns the ticks remaining before uid may queue abilityID.
func (s *Service) Cooldown(uid, abilityID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldowns[uid][abilityID]
}

// Cooldowns lists uid's abilities still cooling down, sorted by ID.
func (s *Service) Cooldowns(uid string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.cooldowns[uid]))
	for id := range s.cooldowns[uid] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TickCooldowns advances every cooldown by one tick.
//
// Postcondition: expired entries are removed.
func (s *Service) TickCooldowns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uid, cds := range s.cooldowns {
		for id, left := range cds {
			if left <= 1 {
				delete(cds, id)
			} else {
				cds[id] = left - 1
			}
		}
		if len(cds) == 0 {
			delete(s.cooldowns, uid)
		}
	}
}

// Proc runs the wielded weapon's on-hit hook and returns its bonus damage.
// The hook receives a table {uid, weapon, target, level, min_damage,
// max_damage} and returns a number; anything else counts as zero.
//
// Postcondition: returns >= 0.
func (s *Service) Proc(uid string, weapon combat.Weapon, targetName string) int {
	if s.procs == nil || s.scripts == nil {
		return 0
	}
	hook := s.procs(weapon.ID)
	if hook == "" {
		return 0
	}
	level := 0
	if p, ok := s.players(uid); ok {
		level = p.Level()
	}
	ctx := s.scripts.NewTable(ProcScriptKey,
		map[string]string{"uid": uid, "weapon": weapon.ID, "target": targetName},
		map[string]int{"level": level, "min_damage": weapon.MinDamage, "max_damage": weapon.MaxDamage},
	)
	if ctx == nil {
		return 0
	}
	n, ok := s.scripts.CallHook(ProcScriptKey, hook, ctx).(lua.LNumber)
	if !ok || n <= 0 {
		return 0
	}
	bonus := int(n)
	s.logger.Debug("weapon proc",
		zap.String("uid", uid),
		zap.String("hook", hook),
		zap.Int("bonus", bonus),
	)
	return bonus
}
