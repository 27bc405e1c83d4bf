package npc

// Instance is a live NPC entity occupying a room. Combat numbers are copied
// from the template at spawn time.
type Instance struct {
	ID              string
	TemplateID      string
	Name            string
	Description     string
	RoomID          string
	CurrentHP       int
	MaxHP           int
	Level           int
	Damage          DamageRange
	Stats           Stats
	DodgeBonus      int
	CritBonus       int
	DamageReduction int
	Hostile         bool
	Passive         bool
	Experience      int
}

// NewInstance creates a live NPC instance from a template, placed in roomID.
//
// Precondition: id must be non-empty; tmpl must be non-nil; roomID must be non-empty.
// Postcondition: CurrentHP equals tmpl.MaxHP.
func NewInstance(id string, tmpl *Template, roomID string) *Instance {
	return &Instance{
		ID:              id,
		TemplateID:      tmpl.ID,
		Name:            tmpl.Name,
		Description:     tmpl.Description,
		RoomID:          roomID,
		CurrentHP:       tmpl.MaxHP,
		MaxHP:           tmpl.MaxHP,
		Level:           tmpl.Level,
		Damage:          tmpl.Damage,
		Stats:           tmpl.Stats,
		DodgeBonus:      tmpl.DodgeBonus,
		CritBonus:       tmpl.CritBonus,
		DamageReduction: tmpl.DamageReduction,
		Hostile:         tmpl.Hostile,
		Passive:         tmpl.Passive,
		Experience:      tmpl.Experience,
	}
}

// IsDead reports whether the instance has zero or fewer hit points.
func (i *Instance) IsDead() bool {
	return i.CurrentHP <= 0
}

// Condition returns a short health description for room output.
//
// Postcondition: Returns a non-empty string.
func (i *Instance) Condition() string {
	if i.CurrentHP <= 0 {
		return "dead"
	}
	pct := float64(i.CurrentHP) / float64(i.MaxHP)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.75:
		return "lightly wounded"
	case pct >= 0.40:
		return "wounded"
	case pct >= 0.15:
		return "badly wounded"
	default:
		return "near death"
	}
}
