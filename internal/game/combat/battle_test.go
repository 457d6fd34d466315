package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyquest/engine/internal/config"
	"github.com/studyquest/engine/internal/game/character"
	"github.com/studyquest/engine/internal/game/combat"
	"github.com/studyquest/engine/internal/game/dice"
	"github.com/studyquest/engine/internal/game/enemy"
	"github.com/studyquest/engine/internal/game/item"
)

func battleCatalog(t *testing.T) *item.Catalog {
	t.Helper()
	c := item.NewCatalog()
	defs := []*item.Def{
		{ID: "small_health_potion", Name: "Small Health Potion", Kind: item.KindConsumable,
			Effect: &item.Effect{Type: item.EffectHeal, Value: 30}, BuyPrice: 15, SellPrice: 7},
		{ID: "mana_potion", Name: "Mana Potion", Kind: item.KindConsumable,
			Effect: &item.Effect{Type: item.EffectManaRestore, Value: 25}, BuyPrice: 20, SellPrice: 10},
		{ID: "lucky_charm", Name: "Lucky Charm", Kind: item.KindAccessory,
			Stats: item.Stats{Luck: 3}, BuyPrice: 60, SellPrice: 30},
	}
	for _, d := range defs {
		require.NoError(t, c.Register(d))
	}
	return c
}

func slime() *enemy.Template {
	return &enemy.Template{
		ID: "slime", Name: "Slime",
		MaxHP: 30, Attack: 8, Defense: 2,
		BaseGold: 12, BaseXP: 20,
	}
}

type battleFixture struct {
	state  *character.State
	battle *combat.Battle
	ends   []combat.EndData
}

// newBattle builds a started battle against the given template with scripted
// rolls. The default character: 100 HP, 50 mana, 15 attack, 5 defense, 5 luck.
func newBattle(t *testing.T, tmpl *enemy.Template, floor int, rolls ...int) *battleFixture {
	t.Helper()
	f := &battleFixture{}
	catalog := battleCatalog(t)
	f.state = character.New(catalog, 50)

	b, err := combat.NewBattle(combat.Params{
		State:     f.state,
		Catalog:   catalog,
		Enemy:     tmpl,
		Floor:     floor,
		Tier:      enemy.TierNormal,
		DungeonID: "crypt",
		ReturnTo:  "dungeon",
		Config:    config.DefaultGame(),
		Source:    dice.NewFixedSource(rolls...),
		OnEnd:     func(d combat.EndData) { f.ends = append(f.ends, d) },
	})
	require.NoError(t, err)
	require.Equal(t, combat.PhaseIntro, b.Phase())
	require.NoError(t, b.Begin())
	f.battle = b
	return f
}

func TestNewBattle_RequiresStateEnemyCatalog(t *testing.T) {
	catalog := battleCatalog(t)
	st := character.New(catalog, 0)

	_, err := combat.NewBattle(combat.Params{Catalog: catalog, Enemy: slime()})
	assert.Error(t, err)
	_, err = combat.NewBattle(combat.Params{State: st, Catalog: catalog})
	assert.Error(t, err)
	_, err = combat.NewBattle(combat.Params{State: st, Enemy: slime()})
	assert.Error(t, err)
}

func TestBattle_ActBeforeBegin(t *testing.T) {
	catalog := battleCatalog(t)
	b, err := combat.NewBattle(combat.Params{
		State:   character.New(catalog, 0),
		Catalog: catalog,
		Enemy:   slime(),
		Config:  config.DefaultGame(),
	})
	require.NoError(t, err)

	_, err = b.Act(combat.Action{Type: combat.ActionAttack})
	assert.ErrorIs(t, err, combat.ErrNotPlayerTurn)
}

func TestBattle_AttackExchange(t *testing.T) {
	// Player roll 0: damage = max(1, 15-2) + 0 = 13.
	// Enemy roll 0: damage = max(1, 8-5) + 0 = 3.
	f := newBattle(t, slime(), 1, 0, 0)

	report, err := f.battle.Act(combat.Action{Type: combat.ActionAttack})
	require.NoError(t, err)
	require.Len(t, report.Events, 2)

	assert.Equal(t, combat.ActorPlayer, report.Events[0].Actor)
	assert.Equal(t, 13, report.Events[0].Damage)
	assert.Equal(t, combat.ActorEnemy, report.Events[1].Actor)
	assert.Equal(t, 3, report.Events[1].Damage)

	assert.Equal(t, 17, f.battle.Enemy().HP)
	assert.Equal(t, 97, f.battle.PlayerStats().HP)
	assert.Equal(t, combat.PhasePlayerTurn, report.Phase)
	assert.Equal(t, 2, f.battle.Round())
}

func TestBattle_DamageFloorsAtOne(t *testing.T) {
	tank := &enemy.Template{
		ID: "golem", Name: "Golem",
		MaxHP: 80, Attack: 1, Defense: 99,
		BaseGold: 1, BaseXP: 1,
	}
	f := newBattle(t, tank, 1, 0, 0)

	report, err := f.battle.Act(combat.Action{Type: combat.ActionAttack})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Events[0].Damage)
	assert.Equal(t, 79, f.battle.Enemy().HP)
}

func TestBattle_MagicSpendsManaAndScalesDamage(t *testing.T) {
	// Magic damage: round(15 * 1.8) - 2 = 25. Enemy roll 0 hits for 3.
	// Mana: 50 - 10 cost + 2 regen at the next player turn = 42.
	f := newBattle(t, slime(), 1, 0, 0)

	report, err := f.battle.Act(combat.Action{Type: combat.ActionMagic})
	require.NoError(t, err)
	assert.Equal(t, 25, report.Events[0].Damage)
	assert.Equal(t, 5, f.battle.Enemy().HP)
	assert.Equal(t, 42, f.battle.PlayerStats().Mana)
}

func TestBattle_MagicWithoutManaDoesNotConsumeTurn(t *testing.T) {
	catalog := battleCatalog(t)
	f := &battleFixture{state: character.New(catalog, 50)}
	cfg := config.DefaultGame()
	cfg.MagicCost = 60 // above the 50 starting mana

	b, err := combat.NewBattle(combat.Params{
		State:   f.state,
		Catalog: catalog,
		Enemy:   slime(),
		Config:  cfg,
		Source:  dice.NewFixedSource(0),
	})
	require.NoError(t, err)
	require.NoError(t, b.Begin())

	_, err = b.Act(combat.Action{Type: combat.ActionMagic})
	assert.ErrorIs(t, err, combat.ErrInsufficientMana)
	assert.Equal(t, 50, b.PlayerStats().Mana)
	assert.Equal(t, combat.PhasePlayerTurn, b.Phase())
	assert.Equal(t, 1, b.Round())
}

func TestBattle_MagicGatingSequence(t *testing.T) {
	catalog := battleCatalog(t)
	st := character.New(catalog, 50)
	st.SetMana(30)
	cfg := config.DefaultGame()
	cfg.BaseManaRegen = 0

	b, err := combat.NewBattle(combat.Params{
		State:   st,
		Catalog: catalog,
		Enemy:   &enemy.Template{ID: "wall", Name: "Wall", MaxHP: 1000, Attack: 1, Defense: 0},
		Config:  cfg,
		Source:  dice.NewFixedSource(0),
		AI:      waitingAI{},
	})
	require.NoError(t, err)
	require.NoError(t, b.Begin())

	for _, want := range []int{20, 10, 0} {
		_, err := b.Act(combat.Action{Type: combat.ActionMagic})
		require.NoError(t, err)
		assert.Equal(t, want, b.PlayerStats().Mana)
	}

	round := b.Round()
	_, err = b.Act(combat.Action{Type: combat.ActionMagic})
	assert.ErrorIs(t, err, combat.ErrInsufficientMana)
	assert.Equal(t, 0, b.PlayerStats().Mana)
	assert.Equal(t, round, b.Round())
}

func TestBattle_DefendHalvesEnemyDamageOnce(t *testing.T) {
	// Enemy damage 3 halved to 1 while defending, full 3 the round after.
	f := newBattle(t, slime(), 1, 0, 0)

	report, err := f.battle.Act(combat.Action{Type: combat.ActionDefend})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Events[1].Damage)
	assert.Equal(t, 99, f.battle.PlayerStats().HP)
	assert.False(t, f.battle.Defending())

	report, err = f.battle.Act(combat.Action{Type: combat.ActionAttack})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Events[1].Damage)
	assert.Equal(t, 96, f.battle.PlayerStats().HP)
}

func TestBattle_UseHealingItem(t *testing.T) {
	// Round 1: attack, take 3 damage (HP 97). Round 2: drink the starter
	// potion; heal clamps to max HP so only 3 of the 30 lands.
	f := newBattle(t, slime(), 1, 0, 0, 0)
	require.Equal(t, 1, f.state.ItemQuantity("small_health_potion"))

	_, err := f.battle.Act(combat.Action{Type: combat.ActionAttack})
	require.NoError(t, err)
	require.Equal(t, 97, f.battle.PlayerStats().HP)

	report, err := f.battle.Act(combat.Action{Type: combat.ActionItem, ItemID: "small_health_potion"})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Events[0].Healed)
	assert.Equal(t, 0, f.state.ItemQuantity("small_health_potion"))
}

func TestBattle_UseItemRejectionsKeepTurn(t *testing.T) {
	f := newBattle(t, slime(), 1, 0)

	_, err := f.battle.Act(combat.Action{Type: combat.ActionItem, ItemID: "no_such_item"})
	assert.ErrorIs(t, err, character.ErrUnknownItem)

	// Known but not carried.
	_, err = f.battle.Act(combat.Action{Type: combat.ActionItem, ItemID: "mana_potion"})
	assert.ErrorIs(t, err, character.ErrNotInInventory)

	// Equippables cannot be consumed mid-fight.
	f.state.AddItem("lucky_charm", 1)
	_, err = f.battle.Act(combat.Action{Type: combat.ActionItem, ItemID: "lucky_charm"})
	assert.Error(t, err)

	assert.Equal(t, combat.PhasePlayerTurn, f.battle.Phase())
	assert.Equal(t, 1, f.battle.Round())
}

func TestBattle_FleeSuccessEndsWithoutRetaliation(t *testing.T) {
	// Luck 5: success chance 0.35 + 0.04*5 = 0.55, threshold 5500. Roll 100 passes.
	f := newBattle(t, slime(), 1, 100)

	report, err := f.battle.Act(combat.Action{Type: combat.ActionFlee})
	require.NoError(t, err)
	require.Len(t, report.Events, 1)
	assert.True(t, report.Events[0].Success)
	assert.Equal(t, combat.PhaseFled, f.battle.Phase())
	assert.Equal(t, 100, f.state.Health())

	require.Len(t, f.ends, 1)
	assert.Equal(t, combat.OutcomeFled, f.ends[0].Outcome)
	assert.Zero(t, f.ends[0].GoldReward)
	assert.Zero(t, f.ends[0].XPReward)
	assert.Equal(t, 0, f.state.BattlesWon())
	assert.Equal(t, 0, f.state.BattlesLost())
}

func TestBattle_FleeFailureGivesEnemyATurn(t *testing.T) {
	// Roll 9000 is above the 5500 threshold; enemy roll 0 hits for 3.
	f := newBattle(t, slime(), 1, 9000, 0)

	report, err := f.battle.Act(combat.Action{Type: combat.ActionFlee})
	require.NoError(t, err)
	require.Len(t, report.Events, 2)
	assert.False(t, report.Events[0].Success)
	assert.Equal(t, 3, report.Events[1].Damage)
	assert.Equal(t, combat.PhasePlayerTurn, f.battle.Phase())
	assert.Empty(t, f.ends)
}

func TestBattle_FleeChanceGrowsWithLuck(t *testing.T) {
	// Roll 6000 fails at luck 5 (threshold 5500) but succeeds at luck 8
	// with a lucky charm equipped (0.35 + 0.04*8 = 0.67, threshold 6700).
	f := newBattle(t, slime(), 1, 6000)
	_, err := f.battle.Act(combat.Action{Type: combat.ActionFlee})
	require.NoError(t, err)
	assert.NotEqual(t, combat.PhaseFled, f.battle.Phase())

	catalog := battleCatalog(t)
	st := character.New(catalog, 50)
	st.AddItem("lucky_charm", 1)
	require.NoError(t, st.Equip("lucky_charm"))

	b, err := combat.NewBattle(combat.Params{
		State:   st,
		Catalog: catalog,
		Enemy:   slime(),
		Config:  config.DefaultGame(),
		Source:  dice.NewFixedSource(6000),
	})
	require.NoError(t, err)
	require.NoError(t, b.Begin())

	_, err = b.Act(combat.Action{Type: combat.ActionFlee})
	require.NoError(t, err)
	assert.Equal(t, combat.PhaseFled, b.Phase())
}

func TestBattle_VictoryGrantsScaledRewards(t *testing.T) {
	weak := &enemy.Template{
		ID: "rat", Name: "Rat",
		MaxHP: 5, Attack: 3, Defense: 0,
		BaseGold: 12, BaseXP: 20,
	}
	// Floor 3 scales HP up (5 * 1.3 = 7) but one 15-damage hit still kills.
	f := newBattle(t, weak, 3, 0)
	require.NoError(t, f.state.EnterDungeon("crypt", "entry"))

	report, err := f.battle.Act(combat.Action{Type: combat.ActionAttack})
	require.NoError(t, err)
	assert.Equal(t, combat.PhaseVictory, report.Phase)
	// The enemy never retaliates once dead.
	require.Len(t, report.Events, 1)

	require.Len(t, f.ends, 1)
	end := f.ends[0]
	assert.Equal(t, combat.OutcomeVictory, end.Outcome)
	assert.Equal(t, 36, end.GoldReward) // 12 * floor 3
	assert.Equal(t, 30, end.XPReward)  // round(20 * 1.5)
	assert.Equal(t, "crypt", end.DungeonID)
	assert.Equal(t, 3, end.Floor)
	assert.Equal(t, "dungeon", end.ReturnTo)

	assert.Equal(t, 86, f.state.Gold())
	assert.Equal(t, 30, f.state.XP())
	assert.Equal(t, 1, f.state.BattlesWon())
	assert.True(t, f.state.Dungeon().Active())
}

func TestBattle_VictoryReportsLevelUps(t *testing.T) {
	boss := &enemy.Template{
		ID: "boss", Name: "Boss",
		MaxHP: 1, Attack: 1, Defense: 0,
		BaseGold: 5, BaseXP: 260,
	}
	f := newBattle(t, boss, 1, 0)

	_, err := f.battle.Act(combat.Action{Type: combat.ActionAttack})
	require.NoError(t, err)

	require.Len(t, f.ends, 1)
	assert.Equal(t, 1, f.ends[0].OldLevel)
	assert.Equal(t, 3, f.ends[0].NewLevel)
	assert.Equal(t, 2, f.ends[0].LevelsGained)
	assert.Equal(t, 3, f.state.Level())
}

func TestBattle_DefeatAppliesPenaltiesAndRecovery(t *testing.T) {
	brute := &enemy.Template{
		ID: "brute", Name: "Brute",
		MaxHP: 500, Attack: 200, Defense: 50,
		BaseGold: 0, BaseXP: 0,
	}
	// Enemy hits for (200-5)+0 = 195, far past the 100 starting HP.
	f := newBattle(t, brute, 1, 0, 0)
	require.NoError(t, f.state.EnterDungeon("crypt", "entry"))

	report, err := f.battle.Act(combat.Action{Type: combat.ActionAttack})
	require.NoError(t, err)
	assert.Equal(t, combat.PhaseDefeat, report.Phase)

	require.Len(t, f.ends, 1)
	end := f.ends[0]
	assert.Equal(t, combat.OutcomeDefeat, end.Outcome)
	assert.Equal(t, 10, end.GoldLost) // 20% of 50

	assert.Equal(t, 40, f.state.Gold())
	assert.Equal(t, 25, f.state.Health()) // 25% of max HP, never zero
	assert.Equal(t, 1, f.state.BattlesLost())
	assert.False(t, f.state.Dungeon().Active())
}

func TestBattle_DefeatRecoveryNeverLeavesZeroHP(t *testing.T) {
	catalog := battleCatalog(t)
	st := character.New(catalog, 0)
	cfg := config.DefaultGame()
	cfg.DefeatRecoverFraction = 0.001

	b, err := combat.NewBattle(combat.Params{
		State:   st,
		Catalog: catalog,
		Enemy:   &enemy.Template{ID: "brute", Name: "Brute", MaxHP: 500, Attack: 200, Defense: 50},
		Config:  cfg,
		Source:  dice.NewFixedSource(0),
	})
	require.NoError(t, err)
	require.NoError(t, b.Begin())

	_, err = b.Act(combat.Action{Type: combat.ActionAttack})
	require.NoError(t, err)
	assert.Equal(t, combat.PhaseDefeat, b.Phase())
	assert.Equal(t, 1, st.Health())
}

func TestBattle_EndHandlerFiresExactlyOnce(t *testing.T) {
	weak := &enemy.Template{ID: "rat", Name: "Rat", MaxHP: 1, Attack: 1, Defense: 0}
	f := newBattle(t, weak, 1, 0)

	_, err := f.battle.Act(combat.Action{Type: combat.ActionAttack})
	require.NoError(t, err)
	require.Len(t, f.ends, 1)

	// Acting after resolution is rejected and does not re-fire the handler.
	_, err = f.battle.Act(combat.Action{Type: combat.ActionAttack})
	assert.ErrorIs(t, err, combat.ErrNotPlayerTurn)
	assert.Len(t, f.ends, 1)
}

func TestBattle_ReentrantActFromEndHandlerIsRejected(t *testing.T) {
	catalog := battleCatalog(t)
	st := character.New(catalog, 0)

	var reentrant error
	var b *combat.Battle
	b, err := combat.NewBattle(combat.Params{
		State:   st,
		Catalog: catalog,
		Enemy:   &enemy.Template{ID: "rat", Name: "Rat", MaxHP: 1, Attack: 1, Defense: 0},
		Config:  config.DefaultGame(),
		Source:  dice.NewFixedSource(0),
		OnEnd: func(combat.EndData) {
			_, reentrant = b.Act(combat.Action{Type: combat.ActionAttack})
		},
	})
	require.NoError(t, err)
	require.NoError(t, b.Begin())

	_, err = b.Act(combat.Action{Type: combat.ActionAttack})
	require.NoError(t, err)
	assert.ErrorIs(t, reentrant, combat.ErrActionInFlight)
}

func TestBattle_InvalidActionTypes(t *testing.T) {
	f := newBattle(t, slime(), 1, 0)

	_, err := f.battle.Act(combat.Action{Type: combat.ActionWait})
	assert.ErrorIs(t, err, combat.ErrInvalidAction)
	_, err = f.battle.Act(combat.Action{})
	assert.ErrorIs(t, err, combat.ErrInvalidAction)
	assert.Equal(t, combat.PhasePlayerTurn, f.battle.Phase())
}

type waitingAI struct{}

func (waitingAI) ChooseAction(combat.EnemyView) combat.ActionType { return combat.ActionWait }

func TestBattle_EnemyAIWait(t *testing.T) {
	catalog := battleCatalog(t)
	st := character.New(catalog, 0)

	b, err := combat.NewBattle(combat.Params{
		State:   st,
		Catalog: catalog,
		Enemy:   slime(),
		Config:  config.DefaultGame(),
		Source:  dice.NewFixedSource(0),
		AI:      waitingAI{},
	})
	require.NoError(t, err)
	require.NoError(t, b.Begin())

	report, err := b.Act(combat.Action{Type: combat.ActionAttack})
	require.NoError(t, err)
	require.Len(t, report.Events, 2)
	assert.Equal(t, combat.ActionWait, report.Events[1].Action)
	assert.Zero(t, report.Events[1].Damage)
	assert.Equal(t, 100, b.PlayerStats().HP)
}

func TestBattle_WritesHPAndManaBackOnResolution(t *testing.T) {
	weak := &enemy.Template{ID: "rat", Name: "Rat", MaxHP: 40, Attack: 8, Defense: 0, BaseGold: 1, BaseXP: 1}
	// Round 1: magic for round(15*1.8) = 27, enemy at 13, counter hit 3.
	// Round 2: magic kills. Mana 50 - 10 + 2 - 10 = 32; HP 97.
	f := newBattle(t, weak, 1, 0, 0, 0)

	_, err := f.battle.Act(combat.Action{Type: combat.ActionMagic})
	require.NoError(t, err)
	report, err := f.battle.Act(combat.Action{Type: combat.ActionMagic})
	require.NoError(t, err)
	require.Equal(t, combat.PhaseVictory, report.Phase)

	assert.Equal(t, 97, f.state.Health())
	assert.Equal(t, 32, f.state.Mana())
}
