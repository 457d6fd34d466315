package enemy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/studyquest/engine/internal/game/enemy"
)

func slimeTemplate() *enemy.Template {
	return &enemy.Template{
		ID: "slime", Name: "Slime",
		MaxHP: 30, Attack: 8, Defense: 2,
		BaseGold: 12, BaseXP: 20,
	}
}

func TestTemplate_Validate(t *testing.T) {
	assert.NoError(t, slimeTemplate().Validate())

	bad := slimeTemplate()
	bad.MaxHP = 0
	assert.Error(t, bad.Validate())

	bad = slimeTemplate()
	bad.ID = ""
	assert.Error(t, bad.Validate())

	bad = slimeTemplate()
	bad.BaseGold = -1
	assert.Error(t, bad.Validate())
}

func TestLoadTemplates_FromYAML(t *testing.T) {
	dir := t.TempDir()
	content := `
- id: slime
  name: Slime
  max_hp: 30
  attack: 8
  defense: 2
  base_gold: 12
  base_xp: 20
- id: skeleton
  name: Skeleton
  max_hp: 45
  attack: 12
  defense: 5
  base_gold: 20
  base_xp: 35
  ai_script: cautious.lua
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "enemies.yaml"), []byte(content), 0o644))

	templates, err := enemy.LoadTemplates(dir)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "cautious.lua", templates["skeleton"].AIScript)
}

func TestLoadTemplates_DuplicateIDFails(t *testing.T) {
	dir := t.TempDir()
	content := `
- id: slime
  name: Slime
  max_hp: 30
- id: slime
  name: Other Slime
  max_hp: 40
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "enemies.yaml"), []byte(content), 0o644))
	_, err := enemy.LoadTemplates(dir)
	assert.Error(t, err)
}

func TestTierMultiplier_Monotonic(t *testing.T) {
	assert.Equal(t, 1.0, enemy.TierNormal.Multiplier())
	assert.Equal(t, 1.25, enemy.TierHard.Multiplier())
	assert.Equal(t, 1.5, enemy.TierElite.Multiplier())
	assert.Equal(t, 2.0, enemy.TierNightmare.Multiplier())
	// clamping
	assert.Equal(t, 1.0, enemy.Tier(0).Multiplier())
	assert.Equal(t, 2.0, enemy.Tier(9).Multiplier())
}

func TestScale_Floor1Normal_IsBase(t *testing.T) {
	s := enemy.Scale(slimeTemplate(), 1, enemy.TierNormal)
	assert.Equal(t, 30, s.MaxHP)
	assert.Equal(t, 30, s.HP)
	assert.Equal(t, 8, s.Attack)
	assert.Equal(t, 2, s.Defense)
}

func TestScale_Property_MonotonicInFloorAndTier(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tmpl := &enemy.Template{
			ID: "x", Name: "X",
			MaxHP:   rapid.IntRange(1, 500).Draw(rt, "hp"),
			Attack:  rapid.IntRange(0, 100).Draw(rt, "atk"),
			Defense: rapid.IntRange(0, 100).Draw(rt, "def"),
		}
		floor := rapid.IntRange(1, 30).Draw(rt, "floor")
		tier := enemy.Tier(rapid.IntRange(1, 4).Draw(rt, "tier"))

		cur := enemy.Scale(tmpl, floor, tier)
		deeper := enemy.Scale(tmpl, floor+1, tier)
		assert.GreaterOrEqual(rt, deeper.MaxHP, cur.MaxHP)
		assert.GreaterOrEqual(rt, deeper.Attack, cur.Attack)
		assert.GreaterOrEqual(rt, deeper.Defense, cur.Defense)

		if tier < enemy.TierNightmare {
			harder := enemy.Scale(tmpl, floor, tier+1)
			assert.GreaterOrEqual(rt, harder.MaxHP, cur.MaxHP)
			assert.GreaterOrEqual(rt, harder.Attack, cur.Attack)
		}

		assert.GreaterOrEqual(rt, cur.MaxHP, tmpl.MaxHP)
		assert.GreaterOrEqual(rt, cur.Attack, tmpl.Attack)
	})
}

func TestScaled_ApplyDamage_FloorsAtZero(t *testing.T) {
	s := enemy.Scale(slimeTemplate(), 1, enemy.TierNormal)
	s.ApplyDamage(10)
	assert.Equal(t, 20, s.HP)
	assert.False(t, s.IsDead())
	s.ApplyDamage(100)
	assert.Equal(t, 0, s.HP)
	assert.True(t, s.IsDead())
}
