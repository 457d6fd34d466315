package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyquest/engine/internal/cloudsync"
	"github.com/studyquest/engine/internal/game/character"
)

// ErrCharacterNotFound is returned when a save targets a character row that
// does not exist.
var ErrCharacterNotFound = errors.New("character not found")

// characterColumns is the column list shared by every record query.
const characterColumns = `
	id, level, xp, hp, max_hp, gold, attack, defense,
	equipped_weapon_id, equipped_armor_id, equipped_accessory_id,
	dungeon_id, floor_number`

// Store implements cloudsync.Gateway on top of PostgreSQL. The user identity
// is established by the embedding application's auth layer and fixed at
// construction; an empty userID means the session is offline.
type Store struct {
	db          *pgxpool.Pool
	userID      string
	starterGold int
}

// NewStore creates a Store backed by the given pool, bound to userID. Fresh
// character rows are seeded with starterGold.
//
// Precondition: db must be a valid, open connection pool.
func NewStore(db *pgxpool.Pool, userID string, starterGold int) *Store {
	return &Store{db: db, userID: userID, starterGold: starterGold}
}

// CurrentUserID returns the session user id, or "" when offline.
func (s *Store) CurrentUserID(context.Context) (string, error) {
	return s.userID, nil
}

// GetOrCreateCharacter fetches the user's character row, inserting one at
// starting values when none exists.
//
// Precondition: userID must be non-empty.
// Postcondition: Returns a record with a non-empty ID, or a non-nil error.
func (s *Store) GetOrCreateCharacter(ctx context.Context, userID string) (*cloudsync.CharacterRecord, error) {
	var rec cloudsync.CharacterRecord
	err := s.db.QueryRow(ctx, `
		INSERT INTO quest_characters
			(user_id, level, xp, hp, max_hp, gold, attack, defense)
		VALUES ($1, 1, 0, $2, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING`+characterColumns,
		userID,
		character.DefaultMaxHealth,
		s.starterGold,
		character.DefaultAttack,
		character.DefaultDefense,
	).Scan(
		&rec.ID, &rec.Level, &rec.XP, &rec.HP, &rec.MaxHP, &rec.Gold,
		&rec.Attack, &rec.Defense,
		&rec.EquippedWeaponID, &rec.EquippedArmorID, &rec.EquippedAccessoryID,
		&rec.DungeonID, &rec.Floor,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching or creating character: %w", err)
	}
	return &rec, nil
}

// GetInventory returns every inventory row for the character.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (s *Store) GetInventory(ctx context.Context, characterID string) ([]cloudsync.InventorySlot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT item_id, quantity
		FROM quest_inventory WHERE character_id = $1 ORDER BY item_id ASC`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying inventory: %w", err)
	}
	defer rows.Close()

	slots := make([]cloudsync.InventorySlot, 0)
	for rows.Next() {
		var slot cloudsync.InventorySlot
		if err := rows.Scan(&slot.ItemID, &slot.Quantity); err != nil {
			return nil, fmt.Errorf("scanning inventory row: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// SaveCharacter overwrites the remote record with the snapshot.
//
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row updated.
func (s *Store) SaveCharacter(ctx context.Context, characterID string, snap character.RemoteSnapshot) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE quest_characters SET
			level = $2, xp = $3, hp = $4, max_hp = $5, gold = $6,
			attack = $7, defense = $8,
			equipped_weapon_id = $9, equipped_armor_id = $10, equipped_accessory_id = $11,
			dungeon_id = $12, floor_number = $13,
			updated_at = NOW()
		WHERE id = $1`,
		characterID,
		snap.Level, snap.XP, snap.HP, snap.MaxHP, snap.Gold,
		snap.Attack, snap.Defense,
		snap.Equipped.Weapon, snap.Equipped.Armor, snap.Equipped.Accessory,
		snap.DungeonID, snap.FloorNumber,
	)
	if err != nil {
		return fmt.Errorf("saving character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// SaveInventory replaces the character's inventory rows wholesale inside a
// transaction, so a reader never observes a half-written inventory.
func (s *Store) SaveInventory(ctx context.Context, characterID string, items map[string]int) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning inventory transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM quest_inventory WHERE character_id = $1`, characterID,
	); err != nil {
		return fmt.Errorf("clearing inventory: %w", err)
	}

	batch := &pgx.Batch{}
	for itemID, qty := range items {
		if itemID == "" || qty <= 0 {
			continue
		}
		batch.Queue(
			`INSERT INTO quest_inventory (character_id, item_id, quantity) VALUES ($1, $2, $3)`,
			characterID, itemID, qty,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("writing inventory rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing inventory: %w", err)
	}
	return nil
}

// SaveDungeonProgress persists the active run. An empty dungeonID clears it.
//
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row updated.
func (s *Store) SaveDungeonProgress(ctx context.Context, characterID, dungeonID string, floor int) error {
	if dungeonID == "" {
		floor = 0
	} else if floor < 1 {
		floor = 1
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE quest_characters SET dungeon_id = $2, floor_number = $3, updated_at = NOW()
		WHERE id = $1`,
		characterID, dungeonID, floor,
	)
	if err != nil {
		return fmt.Errorf("saving dungeon progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}
