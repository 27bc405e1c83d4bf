// Package inventory provides item definitions, equipped gear with
// durability, room floors, and loot generation for NPC kills.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Kind constants for ItemDef.Kind.
const (
	KindWeapon = "weapon"
	KindArmor  = "armor"
	KindJunk   = "junk"
)

var validKinds = map[string]bool{
	KindWeapon: true,
	KindArmor:  true,
	KindJunk:   true,
}

// WeaponStats are the combat numbers of a weapon item.
type WeaponStats struct {
	MinDamage  int `yaml:"min_damage"`
	MaxDamage  int `yaml:"max_damage"`
	EnergyCost int `yaml:"energy_cost"`
	// Proc names a Lua hook run on every landed hit. Empty = none.
	Proc string `yaml:"proc"`
}

// ArmorStats are the combat numbers of an armor item.
type ArmorStats struct {
	Slot      ArmorSlot `yaml:"slot"`
	ArmorType string    `yaml:"armor_type"`
	// DR is explicit damage reduction; 0 falls back to the armor type default.
	DR int `yaml:"dr"`
}

// ItemDef defines the static properties of an item loaded from YAML.
type ItemDef struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Kind        string       `yaml:"kind"`
	Weapon      *WeaponStats `yaml:"weapon"`
	Armor       *ArmorStats  `yaml:"armor"`
	// Durability is the number of uses before the item breaks. 0 = unbreakable.
	Durability int `yaml:"durability"`
	// Limit caps how many instances may exist at once. 0 = unlimited.
	Limit int `yaml:"limit"`
	// Cooldown is the minimum time between two drops of this item.
	Cooldown time.Duration `yaml:"cooldown"`
	// DropRate scales every loot table chance for this item. 0 means 1.
	DropRate float64 `yaml:"drop_rate"`
}

// EffectiveDropRate returns DropRate, treating an unset rate as 1.
func (d *ItemDef) EffectiveDropRate() float64 {
	if d.DropRate <= 0 {
		return 1
	}
	return d.DropRate
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid; otherwise every
// violation is reported in one error.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("kind must be one of weapon, armor, junk; got %q", d.Kind))
	}
	if d.Kind == KindWeapon {
		if d.Weapon == nil {
			errs = append(errs, errors.New("weapon stats are required when kind is weapon"))
		} else {
			if d.Weapon.MinDamage < 0 || d.Weapon.MinDamage > d.Weapon.MaxDamage {
				errs = append(errs, fmt.Errorf("weapon damage must satisfy 0 <= min <= max, got %d-%d", d.Weapon.MinDamage, d.Weapon.MaxDamage))
			}
			if d.Weapon.EnergyCost <= 0 {
				errs = append(errs, errors.New("weapon energy_cost must be > 0"))
			}
		}
	}
	if d.Kind == KindArmor {
		if d.Armor == nil {
			errs = append(errs, errors.New("armor stats are required when kind is armor"))
		} else {
			if !d.Armor.Slot.Valid() {
				errs = append(errs, fmt.Errorf("armor slot %q is not valid", d.Armor.Slot))
			}
			if d.Armor.DR < 0 {
				errs = append(errs, errors.New("armor dr must be >= 0"))
			}
		}
	}
	if d.Durability < 0 {
		errs = append(errs, errors.New("durability must be >= 0"))
	}
	if d.Limit < 0 {
		errs = append(errs, errors.New("limit must be >= 0"))
	}
	if d.Cooldown < 0 {
		errs = append(errs, errors.New("cooldown must be >= 0"))
	}
	if d.DropRate < 0 {
		errs = append(errs, errors.New("drop_rate must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

// LoadItems reads all *.yaml and *.yml files from dir, parses each as an
// ItemDef, validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		var d ItemDef
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("LoadItems: invalid item in %q: %w", path, err)
		}
		items = append(items, &d)
	}
	return items, nil
}
