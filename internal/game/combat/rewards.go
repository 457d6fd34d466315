package combat

import "math"

// Victory reward scaling. Both functions are pure and monotonically
// increasing in floor and in the enemy's base reward value.

// GoldReward returns the gold granted for defeating an enemy with the given
// base gold value on the given floor.
//
// Precondition: baseGold >= 0.
// Postcondition: result >= baseGold for floor >= 1; strictly increasing in
// floor when baseGold > 0.
func GoldReward(baseGold, floor int) int {
	if floor < 1 {
		floor = 1
	}
	return baseGold * floor
}

// XPReward returns the experience granted for defeating an enemy with the
// given base XP value on the given floor: +25% per floor past the first.
//
// Precondition: baseXP >= 0.
// Postcondition: result >= baseXP for floor >= 1; non-decreasing in floor.
func XPReward(baseXP, floor int) int {
	if floor < 1 {
		floor = 1
	}
	return int(math.Round(float64(baseXP) * (1 + 0.25*float64(floor-1))))
}
