package combat

import "sync"

// DefaultMaxComboPoints bounds ComboState.Points when no limit is configured.
const DefaultMaxComboPoints = 5

// ComboState is one player's accumulated finisher points.
//
// Invariant: Points > 0 only while Target is non-empty; 0 <= Points <= max.
type ComboState struct {
	Target string
	Points int
}

// ComboTracker holds every player's ComboState.
// All methods are safe for concurrent use.
type ComboTracker struct {
	mu     sync.Mutex
	max    int
	combos map[string]ComboState
}

// NewComboTracker creates a tracker capping points at max.
// A non-positive max uses DefaultMaxComboPoints.
func NewComboTracker(max int) *ComboTracker {
	if max <= 0 {
		max = DefaultMaxComboPoints
	}
	return &ComboTracker{max: max, combos: make(map[string]ComboState)}
}

// Max returns the point cap.
func (t *ComboTracker) Max() int { return t.max }

// Get returns uid's combo state.
func (t *ComboTracker) Get(uid string) ComboState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.combos[uid]
}

// Restore installs persisted state, enforcing the invariant.
func (t *ComboTracker) Restore(uid string, s ComboState) {
	if s.Target == "" || s.Points <= 0 {
		s = ComboState{}
	}
	s.Points = clamp(s.Points, 0, t.max)
	t.mu.Lock()
	defer t.mu.Unlock()
	if s.Target == "" {
		delete(t.combos, uid)
		return
	}
	t.combos[uid] = s
}

// AddPoint adds one point against target. Switching targets zeroes points first.
//
// Postcondition: Get(uid).Target == target; 1 <= Get(uid).Points <= max.
func (t *ComboTracker) AddPoint(uid, target string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.combos[uid]
	if s.Target != target {
		s = ComboState{Target: target}
	}
	if s.Points < t.max {
		s.Points++
	}
	t.combos[uid] = s
	return s.Points
}

// Spend consumes every point built against target and returns how many there were.
// Points built against a different target are not spent.
func (t *ComboTracker) Spend(uid, target string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.combos[uid]
	if s.Target != target || s.Points == 0 {
		return 0
	}
	delete(t.combos, uid)
	return s.Points
}

// ClearTarget zeroes uid's points if they were built against target.
func (t *ComboTracker) ClearTarget(uid, target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.combos[uid].Target == target {
		delete(t.combos, uid)
	}
}

// Clear zeroes uid's points.
func (t *ComboTracker) Clear(uid string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.combos, uid)
}
