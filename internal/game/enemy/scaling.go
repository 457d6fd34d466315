package enemy

import "math"

// Tier is the dungeon difficulty bucket, independent of floor number.
type Tier int

const (
	// TierNormal is the baseline difficulty.
	TierNormal Tier = 1
	// TierHard applies a 1.25x stat multiplier.
	TierHard Tier = 2
	// TierElite applies a 1.5x stat multiplier.
	TierElite Tier = 3
	// TierNightmare applies a 2x stat multiplier.
	TierNightmare Tier = 4
)

// Multiplier returns the stat multiplier for the tier. Out-of-range tiers
// clamp to the nearest valid bucket.
//
// Postcondition: non-decreasing in tier; always >= 1.
func (t Tier) Multiplier() float64 {
	switch {
	case t <= TierNormal:
		return 1.0
	case t == TierHard:
		return 1.25
	case t == TierElite:
		return 1.5
	default:
		return 2.0
	}
}

// floorFactor grows enemy stats 15% per floor past the first.
func floorFactor(floor int) float64 {
	if floor < 1 {
		floor = 1
	}
	return 1 + 0.15*float64(floor-1)
}

// Scaled is a combat-ready enemy instance: template stats adjusted for the
// floor and dungeon tier. HP is mutable battle state.
type Scaled struct {
	Template *Template
	Floor    int
	Tier     Tier

	HP      int
	MaxHP   int
	Attack  int
	Defense int
}

// IsDead reports whether the enemy's HP has reached zero.
func (s *Scaled) IsDead() bool { return s.HP <= 0 }

// ApplyDamage reduces HP by dmg, flooring at zero.
//
// Precondition: dmg >= 0.
func (s *Scaled) ApplyDamage(dmg int) {
	if dmg <= 0 {
		return
	}
	s.HP -= dmg
	if s.HP < 0 {
		s.HP = 0
	}
}

// Scale produces a combat-ready enemy from the template for the given floor
// and tier.
//
// Precondition: t must have passed Validate.
// Postcondition: every scaled stat is monotonically non-decreasing in floor
// and in tier, and no scaled stat is below its template value.
func Scale(t *Template, floor int, tier Tier) *Scaled {
	factor := floorFactor(floor) * tier.Multiplier()
	scale := func(v int) int {
		return int(math.Round(float64(v) * factor))
	}
	maxHP := scale(t.MaxHP)
	if maxHP < 1 {
		maxHP = 1
	}
	return &Scaled{
		Template: t,
		Floor:    floor,
		Tier:     tier,
		HP:       maxHP,
		MaxHP:    maxHP,
		Attack:   scale(t.Attack),
		Defense:  scale(t.Defense),
	}
}
