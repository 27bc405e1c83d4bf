// Package npc holds NPC templates, the live instances spawned from them and
// the per-room respawn bookkeeping.
package npc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Stats holds the five combat attributes of an NPC template.
type Stats struct {
	Str int `yaml:"str"`
	Dex int `yaml:"dex"`
	Agi int `yaml:"agi"`
	Int int `yaml:"int"`
	Wis int `yaml:"wis"`
}

// DamageRange is the inclusive base damage an NPC's attack rolls.
type DamageRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Template defines a reusable NPC archetype loaded from YAML.
type Template struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Level       int         `yaml:"level"`
	MaxHP       int         `yaml:"max_hp"`
	Damage      DamageRange `yaml:"damage"`
	Stats       Stats       `yaml:"stats"`
	DodgeBonus  int         `yaml:"dodge_bonus"`
	CritBonus   int         `yaml:"crit_bonus"`
	// DamageReduction is subtracted from every physical hit the NPC takes.
	DamageReduction int `yaml:"damage_reduction"`
	// Hostile NPCs fight anyone who engages them and are picked when a
	// player's session is rebuilt.
	Hostile bool `yaml:"hostile"`
	// Passive NPCs never strike back until someone has attacked them.
	Passive    bool `yaml:"passive"`
	Experience int  `yaml:"experience"`
	// RespawnDelay is the duration string (e.g. "5m", "30s") before a dead NPC
	// of this template respawns. Empty means the NPC does not respawn.
	RespawnDelay string     `yaml:"respawn_delay"`
	Loot         *LootTable `yaml:"loot"`
}

// Respawn returns the parsed respawn delay; zero means the template never
// comes back on its own.
func (t *Template) Respawn() time.Duration {
	d, err := time.ParseDuration(t.RespawnDelay)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Validate reports every broken field of t in one error.
//
// Postcondition: nil iff the template can be spawned.
func (t *Template) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(t.ID != "", "id must not be empty")
	check(t.Name != "", "name must not be empty")
	check(t.Level >= 1, "level must be >= 1")
	check(t.MaxHP >= 1, "max_hp must be >= 1")
	check(t.Damage.Min >= 0 && t.Damage.Min <= t.Damage.Max,
		"damage must satisfy 0 <= min <= max, got %d-%d", t.Damage.Min, t.Damage.Max)
	check(t.Experience >= 0, "experience must be >= 0")
	check(!(t.Hostile && t.Passive), "cannot be both hostile and passive")
	if t.RespawnDelay != "" {
		if _, err := time.ParseDuration(t.RespawnDelay); err != nil {
			errs = append(errs, fmt.Errorf("respawn_delay %q: %w", t.RespawnDelay, err))
		}
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("npc template %q: %w", t.ID, errors.Join(errs...))
	}
	return nil
}

// LoadTemplateFromBytes decodes one template. Unknown keys are rejected so a
// misspelled field does not silently zero a stat.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var tmpl Template
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates loads every .yaml or .yml file in dir, sorted by file name.
//
// Postcondition: either every template in dir or the first error.
func LoadTemplates(dir string) ([]*Template, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.y*ml"))
	if err != nil {
		return nil, fmt.Errorf("listing npc dir %q: %w", dir, err)
	}
	out := make([]*Template, 0, len(paths))
	for _, path := range paths {
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		out = append(out, tmpl)
	}
	return out, nil
}
