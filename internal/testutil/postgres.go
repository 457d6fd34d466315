// Package testutil provides test helpers, including PostgreSQL container
// management for storage integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/studyquest/engine/internal/config"
	"github.com/studyquest/engine/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}

	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})

	return pc
}

// ApplyMigrations runs the schema creation SQL directly for tests.
// This avoids requiring the migrate tool in the test environment.
//
// Precondition: Pool must be connected.
// Postcondition: The quest_characters and quest_inventory tables exist.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	schema := `
		CREATE EXTENSION IF NOT EXISTS pgcrypto;
		CREATE TABLE IF NOT EXISTS quest_characters (
			id                    UUID         PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id               TEXT         NOT NULL UNIQUE,
			level                 INTEGER      NOT NULL DEFAULT 1 CHECK (level >= 1),
			xp                    INTEGER      NOT NULL DEFAULT 0 CHECK (xp >= 0),
			hp                    INTEGER      NOT NULL CHECK (hp >= 0),
			max_hp                INTEGER      NOT NULL CHECK (max_hp >= 1),
			gold                  INTEGER      NOT NULL DEFAULT 0 CHECK (gold >= 0),
			attack                INTEGER      NOT NULL,
			defense               INTEGER      NOT NULL,
			equipped_weapon_id    TEXT         NOT NULL DEFAULT '',
			equipped_armor_id     TEXT         NOT NULL DEFAULT '',
			equipped_accessory_id TEXT         NOT NULL DEFAULT '',
			dungeon_id            TEXT         NOT NULL DEFAULT '',
			floor_number          INTEGER      NOT NULL DEFAULT 0 CHECK (floor_number >= 0),
			created_at            TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at            TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_quest_characters_user_id ON quest_characters (user_id);
		CREATE TABLE IF NOT EXISTS quest_inventory (
			character_id UUID    NOT NULL REFERENCES quest_characters (id) ON DELETE CASCADE,
			item_id      TEXT    NOT NULL,
			quantity     INTEGER NOT NULL CHECK (quantity > 0),
			PRIMARY KEY (character_id, item_id)
		);
	`

	_, err := pc.RawPool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	t.Logf("migrations applied [%s]", time.Since(start))
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pc.Config.User, pc.Config.Password,
		pc.Config.Host, pc.Config.Port,
		pc.Config.Name, pc.Config.SSLMode,
	)
}
