// Package ability defines combat abilities, the per-player ability queue,
// resource payment, cooldowns, and weapon on-hit procs.
package ability

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/fray/internal/game/combat"
)

// Kind values accepted in ability YAML.
const (
	KindPhysical = "physical"
	KindSpell    = "spell"
	KindFinisher = "finisher"
)

// Def is one ability definition loaded from YAML.
type Def struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`
	MinDamage   int    `yaml:"min_damage"`
	MaxDamage   int    `yaml:"max_damage"`
	// Resource names the pool the cost is paid from. Empty means free.
	Resource string `yaml:"resource"`
	Cost     int    `yaml:"cost"`
	// Cooldown is the number of ticks before the ability can be queued again.
	Cooldown int `yaml:"cooldown"`
}

// CombatKind maps Kind onto the combat engine's classification.
//
// Precondition: d passed Validate.
func (d *Def) CombatKind() combat.AbilityKind {
	switch d.Kind {
	case KindSpell:
		return combat.AbilitySpell
	case KindFinisher:
		return combat.AbilityFinisher
	default:
		return combat.AbilityPhysical
	}
}

// Use returns the combat view of d.
func (d *Def) Use() combat.AbilityUse {
	return combat.AbilityUse{
		ID:        d.ID,
		Name:      d.Name,
		Kind:      d.CombatKind(),
		MinDamage: d.MinDamage,
		MaxDamage: d.MaxDamage,
		Resource:  d.Resource,
	}
}

// Validate reports every problem with d at once.
func (d *Def) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch d.Kind {
	case KindPhysical, KindSpell, KindFinisher:
	default:
		errs = append(errs, fmt.Errorf("kind %q must be one of physical, spell, finisher", d.Kind))
	}
	if d.MinDamage < 0 || d.MaxDamage < d.MinDamage {
		errs = append(errs, fmt.Errorf("damage range [%d, %d] is invalid", d.MinDamage, d.MaxDamage))
	}
	if d.Cost < 0 {
		errs = append(errs, fmt.Errorf("cost must be >= 0, got %d", d.Cost))
	}
	if d.Cost > 0 && d.Resource == "" {
		errs = append(errs, errors.New("a cost requires a resource"))
	}
	if d.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown must be >= 0, got %d", d.Cooldown))
	}
	if len(errs) > 0 {
		return fmt.Errorf("ability %q: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

// LoadDefs reads every .yaml file in dir. Each file holds a list of abilities.
//
// Postcondition: returns all defs sorted by ID, or the first error.
func LoadDefs(dir string) ([]*Def, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading ability dir %s: %w", dir, err)
	}
	var out []*Def
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		defs, err := ParseDefs(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, defs...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ParseDefs decodes a YAML list of abilities and validates each one.
func ParseDefs(data []byte) ([]*Def, error) {
	var file struct {
		Abilities []*Def `yaml:"abilities"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing abilities: %w", err)
	}
	for _, d := range file.Abilities {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Abilities, nil
}

// Registry indexes ability definitions by ID. It is read-only after loading.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry indexes defs.
//
// Postcondition: returns an error on a duplicate ID.
func NewRegistry(defs []*Def) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Def, len(defs))}
	for _, d := range defs {
		if _, dup := r.defs[d.ID]; dup {
			return nil, fmt.Errorf("ability: duplicate id %q", d.ID)
		}
		r.defs[d.ID] = d
	}
	return r, nil
}

// Get returns the def for id.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// Find resolves a player-typed name: an exact ID, then a case-insensitive
// name prefix.
func (r *Registry) Find(name string) (*Def, bool) {
	if d, ok := r.defs[name]; ok {
		return d, true
	}
	want := strings.ToLower(name)
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if d := r.defs[id]; want != "" && strings.HasPrefix(strings.ToLower(d.Name), want) {
			return d, true
		}
	}
	return nil, false
}
