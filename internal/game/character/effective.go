package character

import "github.com/studyquest/engine/internal/game/item"

// Effective stats are base attributes plus the sum of equipped-item bonuses.
// The resolvers are pure over the current state and safe to call repeatedly
// mid-battle, since equipment cannot change during a battle.

func (s *State) equipmentBonus(pick func(item.Stats) int) int {
	total := 0
	for _, id := range s.equipped.IDs() {
		def, ok := s.catalog.Item(id)
		if !ok {
			// An equipped id missing from the catalog contributes nothing.
			continue
		}
		total += pick(def.Stats)
	}
	return total
}

// EffectiveAttack returns base attack plus equipped bonuses.
func (s *State) EffectiveAttack() int {
	return s.attack + s.equipmentBonus(func(st item.Stats) int { return st.Attack })
}

// EffectiveDefense returns base defense plus equipped bonuses.
func (s *State) EffectiveDefense() int {
	return s.defense + s.equipmentBonus(func(st item.Stats) int { return st.Defense })
}

// EffectiveLuck returns base luck plus equipped bonuses.
func (s *State) EffectiveLuck() int {
	return s.luck + s.equipmentBonus(func(st item.Stats) int { return st.Luck })
}

// EffectiveMaxHealth returns base max health plus equipped bonuses.
func (s *State) EffectiveMaxHealth() int {
	return s.maxHealth + s.equipmentBonus(func(st item.Stats) int { return st.MaxHealth })
}

// EffectiveMaxMana returns base max mana plus equipped bonuses.
func (s *State) EffectiveMaxMana() int {
	return s.maxMana + s.equipmentBonus(func(st item.Stats) int { return st.MaxMana })
}

// ManaRegenBonus returns the summed equipment mana-regen bonus. The base
// per-turn regen constant is owned by the combat configuration.
func (s *State) ManaRegenBonus() int {
	return s.equipmentBonus(func(st item.Stats) int { return st.ManaRegen })
}

// CombatStats is a transient per-battle snapshot of effective player stats.
// Combat mutates the snapshot, never the live State, so damage is applied
// back explicitly rather than through aliasing.
type CombatStats struct {
	HP        int
	MaxHP     int
	Attack    int
	Defense   int
	Luck      int
	Mana      int
	MaxMana   int
	ManaRegen int // equipment bonus only; base regen comes from config
}

// CombatSnapshot captures the effective stats for the start of a battle.
//
// Postcondition: the snapshot shares no storage with the State.
func (s *State) CombatSnapshot() CombatStats {
	return CombatStats{
		HP:        s.health,
		MaxHP:     s.EffectiveMaxHealth(),
		Attack:    s.EffectiveAttack(),
		Defense:   s.EffectiveDefense(),
		Luck:      s.EffectiveLuck(),
		Mana:      s.mana,
		MaxMana:   s.EffectiveMaxMana(),
		ManaRegen: s.ManaRegenBonus(),
	}
}
