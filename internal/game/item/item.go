// Package item defines the static item catalog: definitions loaded from YAML
// content files and an in-memory registry. The catalog is read-only at runtime;
// the engine never mutates it.
package item

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Kind constants for Def.Kind.
const (
	KindWeapon     = "weapon"
	KindArmor      = "armor"
	KindAccessory  = "accessory"
	KindConsumable = "consumable"
)

// validKinds is the set of valid Def kinds.
var validKinds = map[string]bool{
	KindWeapon:     true,
	KindArmor:      true,
	KindAccessory:  true,
	KindConsumable: true,
}

// Effect type constants for consumables.
const (
	EffectHeal        = "heal"
	EffectManaRestore = "mana_restore"
)

// Stats holds the stat bonuses an equippable item grants. A zero field
// contributes nothing to the effective stat.
type Stats struct {
	Attack    int `yaml:"attack"`
	Defense   int `yaml:"defense"`
	Luck      int `yaml:"luck"`
	MaxHealth int `yaml:"max_health"`
	MaxMana   int `yaml:"max_mana"`
	ManaRegen int `yaml:"mana_regen"`
}

// Effect describes what a consumable does when used.
type Effect struct {
	Type  string `yaml:"type"`
	Value int    `yaml:"value"`
}

// Def defines the static properties of a catalog item loaded from YAML.
type Def struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Kind        string  `yaml:"kind"`
	Stats       Stats   `yaml:"stats"`
	Effect      *Effect `yaml:"effect"`
	BuyPrice    int     `yaml:"buy_price"`
	SellPrice   int     `yaml:"sell_price"`
}

// Equippable reports whether the item occupies an equipment slot.
func (d *Def) Equippable() bool {
	return d.Kind == KindWeapon || d.Kind == KindArmor || d.Kind == KindAccessory
}

// Validate checks that the Def satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *Def) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("Kind must be one of weapon, armor, accessory, consumable; got %q", d.Kind))
	}
	if d.BuyPrice < 0 {
		errs = append(errs, errors.New("BuyPrice must be >= 0"))
	}
	if d.SellPrice < 0 {
		errs = append(errs, errors.New("SellPrice must be >= 0"))
	}
	if d.Kind == KindConsumable {
		if d.Effect == nil {
			errs = append(errs, errors.New("Effect is required when Kind is consumable"))
		} else {
			if d.Effect.Type != EffectHeal && d.Effect.Type != EffectManaRestore {
				errs = append(errs, fmt.Errorf("Effect.Type must be heal or mana_restore; got %q", d.Effect.Type))
			}
			if d.Effect.Value < 1 {
				errs = append(errs, errors.New("Effect.Value must be >= 1"))
			}
		}
	}
	if d.Kind != KindConsumable && d.Effect != nil {
		errs = append(errs, fmt.Errorf("Effect is only valid for consumables, not %q", d.Kind))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// LoadDefs reads all *.yaml and *.yml files from dir, parses each as a list of
// Defs, validates every entry, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid Defs or the first encountered error.
func LoadDefs(dir string) ([]*Def, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadDefs: cannot read directory %q: %w", dir, err)
	}

	var defs []*Def
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadDefs: reading %q: %w", path, err)
		}
		var fileDefs []*Def
		if err := yaml.Unmarshal(data, &fileDefs); err != nil {
			return nil, fmt.Errorf("LoadDefs: parsing %q: %w", path, err)
		}
		for _, d := range fileDefs {
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("LoadDefs: %q: %w", path, err)
			}
		}
		defs = append(defs, fileDefs...)
	}
	return defs, nil
}
