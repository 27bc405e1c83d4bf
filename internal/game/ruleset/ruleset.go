// Package ruleset loads the race and class tables that contribute combat
// bonuses to player characters.
package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Race defines a playable race.
//
// Precondition: ID and Name must be non-empty after loading.
type Race struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// DodgeBonus is added to the dodge chance of every member, in percent.
	DodgeBonus int `yaml:"dodge_bonus"`
	// CritBonus is added to the crit chance of every member, in percent.
	CritBonus int `yaml:"crit_bonus"`
}

// Class defines a playable class.
//
// Precondition: ID and Name must be non-empty after loading.
type Class struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	DodgeBonus  int    `yaml:"dodge_bonus"`
	// DRBonus is added to the damage reduction from worn armor.
	DRBonus int `yaml:"dr_bonus"`
	// Haste is flat energy added to every round.
	Haste int `yaml:"haste"`
	// Resources are the class's pool maxima per level, e.g. {mana: 10}.
	Resources map[string]int `yaml:"resources"`
}

// Bonuses is the combined contribution of a race and class.
type Bonuses struct {
	Dodge int
	Crit  int
	DR    int
	Haste int
}

// LoadRaces reads all .yaml files in dir and parses each as a Race.
//
// Postcondition: Returns all parsed races (may be empty) or a non-nil error.
func LoadRaces(dir string) ([]*Race, error) {
	return loadAll[Race](dir, "race", func(r *Race) error {
		if r.ID == "" || r.Name == "" {
			return fmt.Errorf("race id and name must not be empty")
		}
		return nil
	})
}

// LoadClasses reads all .yaml files in dir and parses each as a Class.
//
// Postcondition: Returns all parsed classes (may be empty) or a non-nil error.
func LoadClasses(dir string) ([]*Class, error) {
	return loadAll[Class](dir, "class", func(c *Class) error {
		if c.ID == "" || c.Name == "" {
			return fmt.Errorf("class id and name must not be empty")
		}
		for name, v := range c.Resources {
			if v < 0 {
				return fmt.Errorf("class %q: resource %q must be >= 0", c.ID, name)
			}
		}
		return nil
	})
}

func loadAll[T any](dir, kind string, validate func(*T) error) ([]*T, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var v T
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing %s file %s: %w", kind, path, err)
		}
		if err := validate(&v); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, &v)
	}
	return out, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}
