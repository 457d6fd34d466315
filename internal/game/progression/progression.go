// Package progression defines the experience curve and level-up stat growth.
// All functions are pure; the character state applies their results.
package progression

// Delta holds the stat increases granted by gaining a level.
type Delta struct {
	MaxHP   int
	Attack  int
	Defense int
}

// Add returns the component-wise sum of d and other.
func (d Delta) Add(other Delta) Delta {
	return Delta{
		MaxHP:   d.MaxHP + other.MaxHP,
		Attack:  d.Attack + other.Attack,
		Defense: d.Defense + other.Defense,
	}
}

// Per-level stat growth. Constant deltas keep the early game readable in the
// balance simulator; the curve lives entirely in XPThreshold.
const (
	maxHPPerLevel   = 10
	attackPerLevel  = 3
	defensePerLevel = 2
)

// XPThreshold returns the cumulative experience required to advance past the
// given level: a character at `level` levels up once their XP reaches this value.
//
// The curve is 100 + 75*level*(level-1), so the first two thresholds are
// 100 and 250.
//
// Invariant: strictly increasing in level for all level >= 1. The level-up
// loop in Advance terminates because of this.
//
// Precondition: level >= 1.
func XPThreshold(level int) int {
	return 100 + 75*level*(level-1)
}

// LevelUpStats returns the stat deltas granted on reaching newLevel.
//
// Postcondition: all delta components are > 0.
func LevelUpStats(newLevel int) Delta {
	return Delta{
		MaxHP:   maxHPPerLevel,
		Attack:  attackPerLevel,
		Defense: defensePerLevel,
	}
}

// Result describes the outcome of applying an experience grant.
type Result struct {
	OldLevel     int
	NewLevel     int
	LevelsGained int
	// Gained is the summed stat delta across every level gained.
	Gained Delta
}

// Advance computes the level reached from cumulative xp starting at level,
// applying level-ups while xp meets each successive threshold and summing
// the per-level deltas.
//
// The function is pure and idempotent: identical inputs always produce
// identical results.
//
// Precondition: level >= 1; xp >= 0.
// Postcondition: result.NewLevel >= level; result.Gained is the sum of
// LevelUpStats for each level in (level, NewLevel].
func Advance(level, xp int) Result {
	r := Result{OldLevel: level, NewLevel: level}
	for xp >= XPThreshold(r.NewLevel) {
		r.NewLevel++
		r.LevelsGained++
		r.Gained = r.Gained.Add(LevelUpStats(r.NewLevel))
	}
	return r
}
