package combat

// Attack count bounds per round.
const (
	MinAttacksPerRound = 1
	MaxAttacksPerRound = 10
)

// BaseEnergy returns the per-round energy budget for a combatant.
//
// Postcondition: result = (300 + level*20 + agi*8) * multiplier + haste, truncated.
func BaseEnergy(level, agi int, multiplier float64, haste int) int {
	return int(float64(300+level*20+agi*8)*multiplier) + haste
}

// EnergyState is one (player, weapon) pair's carried energy.
//
// Invariant: 0 <= Leftover < the effective cost of the last computation.
type EnergyState struct {
	Leftover int
	Heavy    bool
}

// EnergyTracker owns the EnergyState of each weapon one player has fought with.
// It is owned by exactly one Session and is not safe for concurrent use.
type EnergyTracker struct {
	maxAttacks int
	states     map[string]*EnergyState
}

// NewEnergyTracker creates a tracker whose attack count is capped at maxAttacks.
// Values outside [MinAttacksPerRound, MaxAttacksPerRound] use MaxAttacksPerRound.
func NewEnergyTracker(maxAttacks int) *EnergyTracker {
	if maxAttacks < MinAttacksPerRound || maxAttacks > MaxAttacksPerRound {
		maxAttacks = MaxAttacksPerRound
	}
	return &EnergyTracker{maxAttacks: maxAttacks, states: make(map[string]*EnergyState)}
}

func (t *EnergyTracker) state(weaponID string) *EnergyState {
	s, ok := t.states[weaponID]
	if !ok {
		s = &EnergyState{}
		t.states[weaponID] = s
	}
	return s
}

// State returns a copy of the state for weaponID.
func (t *EnergyTracker) State(weaponID string) EnergyState {
	if s, ok := t.states[weaponID]; ok {
		return *s
	}
	return EnergyState{}
}

// SetHeavy arms or disarms heavy-attack mode for weaponID.
func (t *EnergyTracker) SetHeavy(weaponID string, heavy bool) {
	t.state(weaponID).Heavy = heavy
}

// CalculateAttacks spends base plus carried energy on attacks of cost each.
// Heavy mode doubles the effective cost.
//
// Precondition: cost > 0.
// Postcondition: MinAttacksPerRound <= attacks <= the tracker's cap;
// 0 <= leftover < effective cost.
func (t *EnergyTracker) CalculateAttacks(weaponID string, base, cost int) (attacks, leftover int) {
	if cost <= 0 {
		cost = 1
	}
	s := t.state(weaponID)
	effective := cost
	if s.Heavy {
		effective *= 2
	}
	total := base + s.Leftover
	if total < 0 {
		total = 0
	}
	attacks = clamp(total/effective, MinAttacksPerRound, t.maxAttacks)
	s.Leftover = total % effective
	return attacks, s.Leftover
}

// Reset discards all carried energy and heavy flags.
func (t *EnergyTracker) Reset() {
	t.states = make(map[string]*EnergyState)
}
