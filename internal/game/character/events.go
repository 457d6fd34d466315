package character

// Event is the closed set of state-change notifications. Each variant carries
// the data a presenter needs; there are no stringly-typed event names.
type Event interface {
	isEvent()
}

// HealthChanged reports the new current and effective-max health.
type HealthChanged struct {
	Health int
	Max    int
}

// ManaChanged reports the new current and effective-max mana.
type ManaChanged struct {
	Mana int
	Max  int
}

// GoldChanged reports the new gold balance.
type GoldChanged struct {
	Gold int
}

// XPGained reports an experience grant.
type XPGained struct {
	Amount int
	Total  int
}

// LeveledUp reports one or more levels gained from a single grant.
type LeveledUp struct {
	OldLevel     int
	NewLevel     int
	LevelsGained int
}

// InventoryChanged reports a quantity change for one item id.
type InventoryChanged struct {
	ItemID   string
	Quantity int
}

// EquipmentChanged reports an item entering or leaving a slot.
type EquipmentChanged struct {
	Slot   Slot
	ItemID string
	// Equipped is true when the item entered the slot, false when it left.
	Equipped bool
}

// DungeonChanged reports dungeon run progress updates.
type DungeonChanged struct {
	Progress DungeonProgress
}

// AchievementUnlocked reports a newly unlocked achievement.
type AchievementUnlocked struct {
	Name string
}

// NewGameStarted reports a full state reset.
type NewGameStarted struct{}

func (HealthChanged) isEvent()       {}
func (ManaChanged) isEvent()         {}
func (GoldChanged) isEvent()         {}
func (XPGained) isEvent()            {}
func (LeveledUp) isEvent()           {}
func (InventoryChanged) isEvent()    {}
func (EquipmentChanged) isEvent()    {}
func (DungeonChanged) isEvent()      {}
func (AchievementUnlocked) isEvent() {}
func (NewGameStarted) isEvent()      {}

// Subscribe registers fn to receive every subsequent Event. Listeners run
// synchronously on the mutating call; they must not mutate the state.
//
// Precondition: fn must be non-nil.
func (s *State) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	s.listeners = append(s.listeners, fn)
}

func (s *State) publish(e Event) {
	for _, fn := range s.listeners {
		fn(e)
	}
}
