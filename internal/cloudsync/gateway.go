// Package cloudsync reconciles the in-memory character state with the remote
// cloud save store. The pull at session start is one-directional and
// last-write-wins from the remote side; pushes are best-effort autosaves that
// never block gameplay.
package cloudsync

import (
	"context"

	"github.com/studyquest/engine/internal/game/character"
)

// CharacterRecord is the flat remote character row. Equipment and dungeon
// fields are empty strings when unset; Floor is meaningful only alongside a
// non-empty DungeonID.
type CharacterRecord struct {
	ID      string
	Level   int
	XP      int
	HP      int
	MaxHP   int
	Gold    int
	Attack  int
	Defense int

	EquippedWeaponID    string
	EquippedArmorID     string
	EquippedAccessoryID string

	DungeonID string
	Floor     int
}

// InventorySlot is one remote inventory row.
type InventorySlot struct {
	ItemID   string
	Quantity int
}

// Gateway is the persistence boundary the reconciler and autosaver talk to.
// Every operation returns an explicit error; callers decide whether a failure
// is fatal. Implementations must be safe for concurrent use.
type Gateway interface {
	// CurrentUserID returns the authenticated user id, or "" when there is
	// no active session.
	CurrentUserID(ctx context.Context) (string, error)

	// GetOrCreateCharacter fetches the user's character record, creating a
	// fresh one at default values when none exists.
	GetOrCreateCharacter(ctx context.Context, userID string) (*CharacterRecord, error)

	// GetInventory returns every inventory row for the character. An empty
	// slice is a valid result.
	GetInventory(ctx context.Context, characterID string) ([]InventorySlot, error)

	// SaveCharacter overwrites the remote record with the snapshot.
	SaveCharacter(ctx context.Context, characterID string, snap character.RemoteSnapshot) error

	// SaveInventory replaces the remote inventory rows wholesale.
	SaveInventory(ctx context.Context, characterID string, items map[string]int) error

	// SaveDungeonProgress persists the active run. An empty dungeonID clears it.
	SaveDungeonProgress(ctx context.Context, characterID, dungeonID string, floor int) error
}

// recordToSnapshot maps a remote row to the shape character.State imports.
func recordToSnapshot(rec *CharacterRecord) character.RemoteSnapshot {
	return character.RemoteSnapshot{
		Level:   rec.Level,
		XP:      rec.XP,
		HP:      rec.HP,
		MaxHP:   rec.MaxHP,
		Gold:    rec.Gold,
		Attack:  rec.Attack,
		Defense: rec.Defense,
		Equipped: character.Equipped{
			Weapon:    rec.EquippedWeaponID,
			Armor:     rec.EquippedArmorID,
			Accessory: rec.EquippedAccessoryID,
		},
		DungeonID:   rec.DungeonID,
		FloorNumber: rec.Floor,
	}
}
