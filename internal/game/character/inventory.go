package character

import (
	"errors"
	"fmt"

	"github.com/studyquest/engine/internal/game/item"
)

// Slot identifies one of the three equipment slots.
type Slot string

const (
	// SlotWeapon is the weapon slot.
	SlotWeapon Slot = "weapon"
	// SlotArmor is the armor slot.
	SlotArmor Slot = "armor"
	// SlotAccessory is the accessory slot.
	SlotAccessory Slot = "accessory"
)

// Equipped is a closed record of the three equipment slots. An empty string
// means the slot is free; invalid slot names are unrepresentable.
type Equipped struct {
	Weapon    string
	Armor     string
	Accessory string
}

// Get returns the item id in the given slot, or "" when the slot is free.
func (e Equipped) Get(slot Slot) string {
	switch slot {
	case SlotWeapon:
		return e.Weapon
	case SlotArmor:
		return e.Armor
	case SlotAccessory:
		return e.Accessory
	}
	return ""
}

func (e *Equipped) set(slot Slot, id string) {
	switch slot {
	case SlotWeapon:
		e.Weapon = id
	case SlotArmor:
		e.Armor = id
	case SlotAccessory:
		e.Accessory = id
	}
}

// IDs returns the non-empty equipped item ids.
func (e Equipped) IDs() []string {
	var out []string
	for _, id := range []string{e.Weapon, e.Armor, e.Accessory} {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// slotForKind maps an equippable item kind to its slot.
func slotForKind(kind string) (Slot, bool) {
	switch kind {
	case item.KindWeapon:
		return SlotWeapon, true
	case item.KindArmor:
		return SlotArmor, true
	case item.KindAccessory:
		return SlotAccessory, true
	}
	return "", false
}

// ErrNotInInventory is returned when an operation names an item the character
// does not hold.
var ErrNotInInventory = errors.New("item not in inventory")

// ErrNotEquippable is returned when equipping a non-equippable item.
var ErrNotEquippable = errors.New("item is not equippable")

// ErrUnknownItem is returned when an item id has no catalog definition.
var ErrUnknownItem = errors.New("unknown item")

// Equipment returns the current slot assignments.
func (s *State) Equipment() Equipped { return s.equipped }

// ItemQuantity returns the held quantity for id; absent means zero.
func (s *State) ItemQuantity(id string) int { return s.items[id] }

// Items returns a copy of the inventory map.
func (s *State) Items() map[string]int {
	out := make(map[string]int, len(s.items))
	for id, qty := range s.items {
		out[id] = qty
	}
	return out
}

// AddItem adds qty of the item to the inventory.
//
// Precondition: qty >= 1.
func (s *State) AddItem(id string, qty int) {
	if id == "" || qty <= 0 {
		return
	}
	s.items[id] += qty
	s.publish(InventoryChanged{ItemID: id, Quantity: s.items[id]})
}

// RemoveItem removes qty of the item from the inventory.
//
// Postcondition: returns false and mutates nothing when the held quantity is
// below qty; a quantity reaching zero removes the map entry.
func (s *State) RemoveItem(id string, qty int) bool {
	if qty <= 0 || s.items[id] < qty {
		return false
	}
	s.items[id] -= qty
	if s.items[id] == 0 {
		delete(s.items, id)
	}
	s.publish(InventoryChanged{ItemID: id, Quantity: s.items[id]})
	return true
}

// Equip moves one unit of the item from the inventory into its slot,
// returning any previously equipped item to the inventory first. The whole
// operation is atomic: on error nothing is mutated.
//
// Shrunken caps never apply here; equipping can only raise effective maxima,
// and current health/mana are left untouched.
//
// Postcondition: on success the item id is absent from the inventory count it
// occupied and present in exactly one slot.
func (s *State) Equip(id string) error {
	def, ok := s.catalog.Item(id)
	if !ok {
		return fmt.Errorf("character: equip %q: %w", id, ErrUnknownItem)
	}
	slot, ok := slotForKind(def.Kind)
	if !ok {
		return fmt.Errorf("character: equip %q (kind %s): %w", id, def.Kind, ErrNotEquippable)
	}
	if s.items[id] < 1 {
		return fmt.Errorf("character: equip %q: %w", id, ErrNotInInventory)
	}

	if prev := s.equipped.Get(slot); prev != "" {
		s.items[prev]++
		s.publish(InventoryChanged{ItemID: prev, Quantity: s.items[prev]})
		s.publish(EquipmentChanged{Slot: slot, ItemID: prev, Equipped: false})
	}

	s.items[id]--
	if s.items[id] == 0 {
		delete(s.items, id)
	}
	s.equipped.set(slot, id)
	s.publish(InventoryChanged{ItemID: id, Quantity: s.items[id]})
	s.publish(EquipmentChanged{Slot: slot, ItemID: id, Equipped: true})
	return nil
}

// Unequip clears the slot, returning its item to the inventory. When the
// removed item granted max-health or max-mana bonuses, current values are
// clamped down to the shrunken caps.
//
// Postcondition: returns false when the slot was already free.
func (s *State) Unequip(slot Slot) bool {
	id := s.equipped.Get(slot)
	if id == "" {
		return false
	}
	s.equipped.set(slot, "")
	s.items[id]++

	// Caps may have shrunk; clamp current values down.
	if max := s.EffectiveMaxHealth(); s.health > max {
		s.health = max
		s.publish(HealthChanged{Health: s.health, Max: max})
	}
	if max := s.EffectiveMaxMana(); s.mana > max {
		s.mana = max
		s.publish(ManaChanged{Mana: s.mana, Max: max})
	}

	s.publish(InventoryChanged{ItemID: id, Quantity: s.items[id]})
	s.publish(EquipmentChanged{Slot: slot, ItemID: id, Equipped: false})
	return true
}

// UseItem consumes one unit of a consumable and applies its effect, clamped
// to the effective maxima.
//
// Postcondition: on error (unknown id, not a consumable, not held) nothing is
// mutated.
func (s *State) UseItem(id string) error {
	def, ok := s.catalog.Item(id)
	if !ok {
		return fmt.Errorf("character: use %q: %w", id, ErrUnknownItem)
	}
	if def.Kind != item.KindConsumable || def.Effect == nil {
		return fmt.Errorf("character: use %q: not a consumable", id)
	}
	if !s.RemoveItem(id, 1) {
		return fmt.Errorf("character: use %q: %w", id, ErrNotInInventory)
	}
	switch def.Effect.Type {
	case item.EffectHeal:
		s.Heal(def.Effect.Value)
	case item.EffectManaRestore:
		s.RestoreMana(def.Effect.Value)
	}
	return nil
}

// Buy purchases one unit of the item at its catalog buy price.
//
// Postcondition: on insufficient gold or unknown item nothing is mutated.
func (s *State) Buy(id string) error {
	def, ok := s.catalog.Item(id)
	if !ok {
		return fmt.Errorf("character: buy %q: %w", id, ErrUnknownItem)
	}
	if !s.SpendGold(def.BuyPrice) {
		return fmt.Errorf("character: buy %q: insufficient gold (have %d, need %d)", id, s.gold, def.BuyPrice)
	}
	s.AddItem(id, 1)
	return nil
}

// Sell removes one unit of the item and credits its catalog sell price.
//
// Postcondition: on unknown or unheld item nothing is mutated.
func (s *State) Sell(id string) error {
	def, ok := s.catalog.Item(id)
	if !ok {
		return fmt.Errorf("character: sell %q: %w", id, ErrUnknownItem)
	}
	if !s.RemoveItem(id, 1) {
		return fmt.Errorf("character: sell %q: %w", id, ErrNotInInventory)
	}
	s.AddGold(def.SellPrice)
	return nil
}
