// Package enemy defines enemy templates, YAML loading, and difficulty scaling.
package enemy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Template defines an enemy's base stats before floor and tier scaling.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	MaxHP       int    `yaml:"max_hp"`
	Attack      int    `yaml:"attack"`
	Defense     int    `yaml:"defense"`
	// BaseGold and BaseXP anchor the victory reward scaling.
	BaseGold int `yaml:"base_gold"`
	BaseXP   int `yaml:"base_xp"`
	// AIScript optionally names a Lua script that picks this enemy's combat
	// actions; empty means the default always-attack behavior.
	AIScript string `yaml:"ai_script"`
}

// Validate checks that the template satisfies its invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff all stat and reward constraints hold.
func (t *Template) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if t.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if t.MaxHP < 1 {
		errs = append(errs, fmt.Errorf("MaxHP must be >= 1, got %d", t.MaxHP))
	}
	if t.Attack < 0 {
		errs = append(errs, fmt.Errorf("Attack must be >= 0, got %d", t.Attack))
	}
	if t.Defense < 0 {
		errs = append(errs, fmt.Errorf("Defense must be >= 0, got %d", t.Defense))
	}
	if t.BaseGold < 0 {
		errs = append(errs, fmt.Errorf("BaseGold must be >= 0, got %d", t.BaseGold))
	}
	if t.BaseXP < 0 {
		errs = append(errs, fmt.Errorf("BaseXP must be >= 0, got %d", t.BaseXP))
	}
	if len(errs) > 0 {
		return fmt.Errorf("enemy template validation failed: %v", errs)
	}
	return nil
}

// LoadTemplates reads all *.yaml and *.yml files from dir, parses each as a
// list of Templates, validates every entry, and returns them indexed by ID.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid templates or the first encountered error.
func LoadTemplates(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadTemplates: cannot read directory %q: %w", dir, err)
	}

	templates := make(map[string]*Template)
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadTemplates: reading %q: %w", path, err)
		}
		var fileTemplates []*Template
		if err := yaml.Unmarshal(data, &fileTemplates); err != nil {
			return nil, fmt.Errorf("LoadTemplates: parsing %q: %w", path, err)
		}
		for _, t := range fileTemplates {
			if err := t.Validate(); err != nil {
				return nil, fmt.Errorf("LoadTemplates: %q: %w", path, err)
			}
			if _, exists := templates[t.ID]; exists {
				return nil, fmt.Errorf("LoadTemplates: duplicate enemy ID %q in %q", t.ID, path)
			}
			templates[t.ID] = t
		}
	}
	return templates, nil
}
