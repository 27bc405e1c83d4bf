package ruleset

// Registry provides lookup of races and classes by ID.
// It is read-only after construction.
type Registry struct {
	races   map[string]*Race
	classes map[string]*Class
}

// NewRegistry indexes races and classes. Later duplicates win.
//
// Postcondition: Returns a non-nil *Registry.
func NewRegistry(races []*Race, classes []*Class) *Registry {
	r := &Registry{
		races:   make(map[string]*Race, len(races)),
		classes: make(map[string]*Class, len(classes)),
	}
	for _, race := range races {
		r.races[race.ID] = race
	}
	for _, c := range classes {
		r.classes[c.ID] = c
	}
	return r
}

// Race returns the race registered under id.
func (r *Registry) Race(id string) (*Race, bool) {
	race, ok := r.races[id]
	return race, ok
}

// Class returns the class registered under id.
func (r *Registry) Class(id string) (*Class, bool) {
	c, ok := r.classes[id]
	return c, ok
}

// Bonuses combines the bonuses of raceID and classID. Unknown IDs contribute nothing.
func (r *Registry) Bonuses(raceID, classID string) Bonuses {
	var b Bonuses
	if race, ok := r.races[raceID]; ok {
		b.Dodge += race.DodgeBonus
		b.Crit += race.CritBonus
	}
	if c, ok := r.classes[classID]; ok {
		b.Dodge += c.DodgeBonus
		b.DR += c.DRBonus
		b.Haste += c.Haste
	}
	return b
}

// ResourceMax returns classID's maximum for resource at level.
//
// Postcondition: Returns 0 for unknown classes or resources.
func (r *Registry) ResourceMax(classID, resource string, level int) int {
	c, ok := r.classes[classID]
	if !ok {
		return 0
	}
	return c.Resources[resource] * level
}
