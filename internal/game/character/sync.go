package character

// RemoteSnapshot is the flat character record exchanged with the cloud save
// store. The reconciler maps gateway records to and from this shape so the
// state never depends on storage types.
type RemoteSnapshot struct {
	Level   int
	XP      int
	HP      int
	MaxHP   int
	Gold    int
	Attack  int
	Defense int

	Equipped Equipped

	// DungeonID is "" when the remote record holds no active run (the
	// sentinel value); FloorNumber is meaningful only alongside a real id.
	DungeonID   string
	FloorNumber int
}

// ExportRemote captures the fields the cloud store persists.
//
// Postcondition: the snapshot reflects the state at call time; later
// mutations do not affect it.
func (s *State) ExportRemote() RemoteSnapshot {
	snap := RemoteSnapshot{
		Level:    s.level,
		XP:       s.xp,
		HP:       s.health,
		MaxHP:    s.maxHealth,
		Gold:     s.gold,
		Attack:   s.attack,
		Defense:  s.defense,
		Equipped: s.equipped,
	}
	if s.dungeon.Active() {
		snap.DungeonID = s.dungeon.DungeonID
		snap.FloorNumber = s.dungeon.FloorNumber
	}
	return snap
}

// RestoreFromRemote overwrites the transient progress fields with remote
// values (last-write-wins from the remote side). Dungeon progress is imported
// only when the remote record denotes a genuinely active run; otherwise the
// local dungeon state is kept.
//
// Precondition: must not be called mid-battle.
// Postcondition: health and mana are clamped into their effective ranges.
func (s *State) RestoreFromRemote(snap RemoteSnapshot) {
	if snap.Level >= 1 {
		s.level = snap.Level
	}
	if snap.XP >= 0 {
		s.xp = snap.XP
	}
	if snap.MaxHP > 0 {
		s.maxHealth = snap.MaxHP
	}
	if snap.Gold >= 0 {
		s.gold = snap.Gold
	}
	if snap.Attack > 0 {
		s.attack = snap.Attack
	}
	if snap.Defense > 0 {
		s.defense = snap.Defense
	}
	s.equipped = snap.Equipped

	s.health = snap.HP
	if s.health < 0 {
		s.health = 0
	}
	if max := s.EffectiveMaxHealth(); s.health > max {
		s.health = max
	}
	if max := s.EffectiveMaxMana(); s.mana > max {
		s.mana = max
	}

	if snap.DungeonID != "" {
		floor := snap.FloorNumber
		if floor < 1 {
			floor = 1
		}
		s.dungeon = DungeonProgress{DungeonID: snap.DungeonID, FloorNumber: floor}
	}

	s.publish(HealthChanged{Health: s.health, Max: s.EffectiveMaxHealth()})
	s.publish(GoldChanged{Gold: s.gold})
	s.publish(DungeonChanged{Progress: s.dungeon})
}

// ReplaceInventory swaps the whole inventory for the remote one. Entries with
// non-positive quantities are dropped. An empty replacement is rejected so a
// malformed remote list cannot wipe local items.
//
// Postcondition: returns false and mutates nothing when items is empty.
func (s *State) ReplaceInventory(items map[string]int) bool {
	filtered := make(map[string]int, len(items))
	for id, qty := range items {
		if id != "" && qty > 0 {
			filtered[id] = qty
		}
	}
	if len(filtered) == 0 {
		return false
	}
	s.items = filtered
	for id, qty := range filtered {
		s.publish(InventoryChanged{ItemID: id, Quantity: qty})
	}
	return true
}
