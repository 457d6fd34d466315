// Package character holds the authoritative in-memory player record for a
// play session. All mutation goes through State methods; callers never touch
// fields directly. The state is owned by a single logical thread (the game
// loop), so no locking is required.
package character

import (
	"fmt"

	"github.com/studyquest/engine/internal/game/item"
	"github.com/studyquest/engine/internal/game/progression"
)

// Default starting attributes for a fresh character.
const (
	DefaultMaxHealth = 100
	DefaultMaxMana   = 50
	DefaultAttack    = 15
	DefaultDefense   = 5
	DefaultLuck      = 5

	// StarterPotionID is granted on new game so the first battle is survivable.
	StarterPotionID = "small_health_potion"
)

// ItemSource is the read-only item catalog capability the state consults for
// equipment bonuses and consumable effects.
type ItemSource interface {
	Item(id string) (*item.Def, bool)
}

// CloudIdentity ties the local state to a remote character record.
// Established at most once per session by the cloud reconciler.
type CloudIdentity struct {
	UserID      string
	CharacterID string
}

// DungeonProgress tracks the active dungeon run. An empty DungeonID is the
// sentinel for "no active run".
type DungeonProgress struct {
	DungeonID     string
	FloorNumber   int
	CurrentRoomID string
}

// Active reports whether a dungeon run is in progress.
func (d DungeonProgress) Active() bool {
	return d.DungeonID != ""
}

// State is the authoritative character record for the session.
//
// Invariants maintained by every method:
//   - 0 <= health <= EffectiveMaxHealth()
//   - 0 <= mana <= EffectiveMaxMana()
//   - level >= 1, xp >= 0, gold >= 0
//   - every inventory quantity is > 0 (absent means zero)
//   - an equipped item id is never simultaneously present in the inventory
type State struct {
	health    int
	maxHealth int
	mana      int
	maxMana   int

	attack  int
	defense int
	luck    int

	level int
	xp    int
	gold  int

	items    map[string]int
	equipped Equipped
	dungeon  DungeonProgress

	battlesWon      int
	battlesLost     int
	totalGoldEarned int
	achievements    map[string]struct{}

	cloud *CloudIdentity

	catalog   ItemSource
	listeners []func(Event)
}

// New creates a fresh level-1 character with default attributes, the given
// starter gold, and one starter potion.
//
// Precondition: catalog must be non-nil.
// Postcondition: the returned State satisfies all invariants.
func New(catalog ItemSource, starterGold int) *State {
	s := &State{catalog: catalog}
	s.reset(starterGold)
	return s
}

func (s *State) reset(starterGold int) {
	s.health = DefaultMaxHealth
	s.maxHealth = DefaultMaxHealth
	s.mana = DefaultMaxMana
	s.maxMana = DefaultMaxMana
	s.attack = DefaultAttack
	s.defense = DefaultDefense
	s.luck = DefaultLuck
	s.level = 1
	s.xp = 0
	s.gold = starterGold
	if starterGold < 0 {
		s.gold = 0
	}
	s.items = map[string]int{StarterPotionID: 1}
	s.equipped = Equipped{}
	s.dungeon = DungeonProgress{FloorNumber: 1}
	s.battlesWon = 0
	s.battlesLost = 0
	s.totalGoldEarned = 0
	s.achievements = make(map[string]struct{})
}

// Reset discards all progress and reinitialises the character for a new game.
// The cloud identity is cleared; a new-game initialize must re-establish it.
//
// Postcondition: state equals a freshly constructed State with starterGold.
func (s *State) Reset(starterGold int) {
	s.reset(starterGold)
	s.cloud = nil
	s.publish(NewGameStarted{})
}

// Accessors. Derived maxima live in effective.go.

// Health returns current health.
func (s *State) Health() int { return s.health }

// MaxHealth returns base max health, before equipment bonuses.
func (s *State) MaxHealth() int { return s.maxHealth }

// Mana returns current mana.
func (s *State) Mana() int { return s.mana }

// MaxMana returns base max mana, before equipment bonuses.
func (s *State) MaxMana() int { return s.maxMana }

// Attack returns the base attack attribute.
func (s *State) Attack() int { return s.attack }

// Defense returns the base defense attribute.
func (s *State) Defense() int { return s.defense }

// Luck returns the base luck attribute.
func (s *State) Luck() int { return s.luck }

// Level returns the current level. Always >= 1.
func (s *State) Level() int { return s.level }

// XP returns cumulative experience. Monotonically non-decreasing.
func (s *State) XP() int { return s.xp }

// Gold returns the current gold balance.
func (s *State) Gold() int { return s.gold }

// BattlesWon returns the lifetime victory count.
func (s *State) BattlesWon() int { return s.battlesWon }

// BattlesLost returns the lifetime defeat count.
func (s *State) BattlesLost() int { return s.battlesLost }

// TotalGoldEarned returns the lifetime gold earned from battles.
func (s *State) TotalGoldEarned() int { return s.totalGoldEarned }

// Dungeon returns the current dungeon progress.
func (s *State) Dungeon() DungeonProgress { return s.dungeon }

// ApplyDamage reduces health by dmg, clamped at zero.
//
// Precondition: dmg >= 0.
// Postcondition: Health() >= 0.
func (s *State) ApplyDamage(dmg int) {
	if dmg <= 0 {
		return
	}
	s.health -= dmg
	if s.health < 0 {
		s.health = 0
	}
	s.publish(HealthChanged{Health: s.health, Max: s.EffectiveMaxHealth()})
}

// Heal raises health by amount, clamped to the effective maximum.
//
// Precondition: amount >= 0.
// Postcondition: Health() <= EffectiveMaxHealth().
func (s *State) Heal(amount int) {
	if amount <= 0 {
		return
	}
	s.health += amount
	if max := s.EffectiveMaxHealth(); s.health > max {
		s.health = max
	}
	s.publish(HealthChanged{Health: s.health, Max: s.EffectiveMaxHealth()})
}

// SetHealth sets health directly, clamped into [0, EffectiveMaxHealth()].
// Used by the combat engine when writing back a battle snapshot.
func (s *State) SetHealth(hp int) {
	if hp < 0 {
		hp = 0
	}
	if max := s.EffectiveMaxHealth(); hp > max {
		hp = max
	}
	s.health = hp
	s.publish(HealthChanged{Health: s.health, Max: s.EffectiveMaxHealth()})
}

// SpendMana deducts cost from mana if available.
//
// Postcondition: returns false and leaves mana unchanged when mana < cost.
func (s *State) SpendMana(cost int) bool {
	if cost < 0 || s.mana < cost {
		return false
	}
	s.mana -= cost
	s.publish(ManaChanged{Mana: s.mana, Max: s.EffectiveMaxMana()})
	return true
}

// RestoreMana raises mana by amount, clamped to the effective maximum.
//
// Precondition: amount >= 0.
func (s *State) RestoreMana(amount int) {
	if amount <= 0 {
		return
	}
	s.mana += amount
	if max := s.EffectiveMaxMana(); s.mana > max {
		s.mana = max
	}
	s.publish(ManaChanged{Mana: s.mana, Max: s.EffectiveMaxMana()})
}

// SetMana sets mana directly, clamped into [0, EffectiveMaxMana()].
// Used by the combat engine when writing back a battle snapshot.
func (s *State) SetMana(mana int) {
	if mana < 0 {
		mana = 0
	}
	if max := s.EffectiveMaxMana(); mana > max {
		mana = max
	}
	s.mana = mana
	s.publish(ManaChanged{Mana: s.mana, Max: s.EffectiveMaxMana()})
}

// AddGold credits amount to the balance and to the lifetime tally.
//
// Precondition: amount >= 0.
func (s *State) AddGold(amount int) {
	if amount <= 0 {
		return
	}
	s.gold += amount
	s.totalGoldEarned += amount
	s.publish(GoldChanged{Gold: s.gold})
}

// SpendGold deducts amount from the balance if available.
//
// Postcondition: returns false and leaves gold unchanged when gold < amount.
func (s *State) SpendGold(amount int) bool {
	if amount < 0 || s.gold < amount {
		return false
	}
	s.gold -= amount
	s.publish(GoldChanged{Gold: s.gold})
	return true
}

// ApplyGoldPenalty removes the given fraction of gold, rounding down.
// Used on defeat.
//
// Precondition: fraction in [0, 1).
// Postcondition: Gold() >= 0; returns the amount removed.
func (s *State) ApplyGoldPenalty(fraction float64) int {
	if fraction <= 0 || s.gold == 0 {
		return 0
	}
	lost := int(float64(s.gold) * fraction)
	if lost > s.gold {
		lost = s.gold
	}
	s.gold -= lost
	s.publish(GoldChanged{Gold: s.gold})
	return lost
}

// AddXP grants experience and applies every level-up the new total crosses.
// Each level gained adds the progression deltas to max health, attack, and
// defense, and tops up current health by the same max-HP delta, bounded by
// the new effective maximum. All deltas are applied before the method
// returns, so other components never observe a partially levelled state.
//
// Precondition: amount >= 0 (negative grants are ignored: XP is monotonic).
// Postcondition: Level() never decreases; XP() increases by amount.
func (s *State) AddXP(amount int) progression.Result {
	if amount < 0 {
		return progression.Result{OldLevel: s.level, NewLevel: s.level}
	}
	s.xp += amount
	s.publish(XPGained{Amount: amount, Total: s.xp})

	r := progression.Advance(s.level, s.xp)
	if r.LevelsGained == 0 {
		return r
	}

	s.level = r.NewLevel
	s.maxHealth += r.Gained.MaxHP
	s.attack += r.Gained.Attack
	s.defense += r.Gained.Defense
	s.Heal(r.Gained.MaxHP)

	s.publish(LeveledUp{OldLevel: r.OldLevel, NewLevel: r.NewLevel, LevelsGained: r.LevelsGained})
	return r
}

// Rest restores health and mana to their effective maxima.
func (s *State) Rest() {
	s.health = s.EffectiveMaxHealth()
	s.mana = s.EffectiveMaxMana()
	s.publish(HealthChanged{Health: s.health, Max: s.health})
	s.publish(ManaChanged{Mana: s.mana, Max: s.mana})
}

// RecordVictory increments the lifetime victory count.
func (s *State) RecordVictory() {
	s.battlesWon++
}

// RecordDefeat increments the lifetime defeat count.
func (s *State) RecordDefeat() {
	s.battlesLost++
}

// EnterDungeon starts a run in the given dungeon at floor 1.
//
// Precondition: dungeonID must be non-empty.
func (s *State) EnterDungeon(dungeonID, entryRoomID string) error {
	if dungeonID == "" {
		return fmt.Errorf("character: dungeon id must not be empty")
	}
	s.dungeon = DungeonProgress{DungeonID: dungeonID, FloorNumber: 1, CurrentRoomID: entryRoomID}
	s.publish(DungeonChanged{Progress: s.dungeon})
	return nil
}

// AdvanceFloor moves the active run one floor deeper.
//
// Postcondition: no-op when no run is active.
func (s *State) AdvanceFloor() {
	if !s.dungeon.Active() {
		return
	}
	s.dungeon.FloorNumber++
	s.publish(DungeonChanged{Progress: s.dungeon})
}

// SetRoom records the current room within the active run.
func (s *State) SetRoom(roomID string) {
	s.dungeon.CurrentRoomID = roomID
}

// ClearDungeon ends any active run, restoring the sentinel state.
//
// Postcondition: Dungeon().Active() is false; FloorNumber resets to 1.
func (s *State) ClearDungeon() {
	s.dungeon = DungeonProgress{FloorNumber: 1}
	s.publish(DungeonChanged{Progress: s.dungeon})
}

// UnlockAchievement records the named achievement.
//
// Postcondition: returns true only the first time a name is unlocked.
func (s *State) UnlockAchievement(name string) bool {
	if _, ok := s.achievements[name]; ok {
		return false
	}
	s.achievements[name] = struct{}{}
	s.publish(AchievementUnlocked{Name: name})
	return true
}

// HasAchievement reports whether the named achievement is unlocked.
func (s *State) HasAchievement(name string) bool {
	_, ok := s.achievements[name]
	return ok
}

// Achievements returns a copy of the unlocked achievement names.
func (s *State) Achievements() []string {
	out := make([]string, 0, len(s.achievements))
	for name := range s.achievements {
		out = append(out, name)
	}
	return out
}

// SetCloudIdentity records the remote identity for this session.
//
// Precondition: both ids must be non-empty.
// Postcondition: returns an error if an identity is already established.
func (s *State) SetCloudIdentity(userID, characterID string) error {
	if userID == "" || characterID == "" {
		return fmt.Errorf("character: cloud identity ids must not be empty")
	}
	if s.cloud != nil {
		return fmt.Errorf("character: cloud identity already established for user %s", s.cloud.UserID)
	}
	s.cloud = &CloudIdentity{UserID: userID, CharacterID: characterID}
	return nil
}

// CloudIdentity returns the remote identity, if established.
func (s *State) CloudIdentity() (CloudIdentity, bool) {
	if s.cloud == nil {
		return CloudIdentity{}, false
	}
	return *s.cloud, true
}
