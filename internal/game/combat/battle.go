// Package combat implements the turn-based battle state machine: a single
// player versus one scaled enemy, resolved action by action. The battle
// mutates a transient snapshot of the player's stats and applies permanent
// changes (HP, mana, gold, XP, tallies) back to the character state only on
// resolution.
package combat

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyquest/engine/internal/config"
	"github.com/studyquest/engine/internal/game/character"
	"github.com/studyquest/engine/internal/game/dice"
	"github.com/studyquest/engine/internal/game/enemy"
	"github.com/studyquest/engine/internal/game/item"
)

// Phase is the battle state machine position.
type Phase int

const (
	// PhaseIntro is the opening state before the first player turn.
	PhaseIntro Phase = iota
	// PhasePlayerTurn accepts exactly one player action.
	PhasePlayerTurn
	// PhaseEnemyTurn is the transient enemy counter-action state.
	PhaseEnemyTurn
	// PhaseVictory is terminal: the enemy was defeated.
	PhaseVictory
	// PhaseDefeat is terminal: the player was defeated.
	PhaseDefeat
	// PhaseFled is terminal: the player escaped.
	PhaseFled
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIntro:
		return "intro"
	case PhasePlayerTurn:
		return "player_turn"
	case PhaseEnemyTurn:
		return "enemy_turn"
	case PhaseVictory:
		return "victory"
	case PhaseDefeat:
		return "defeat"
	case PhaseFled:
		return "flee"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends the battle.
func (p Phase) Terminal() bool {
	return p == PhaseVictory || p == PhaseDefeat || p == PhaseFled
}

// Outcome is the terminal battle result passed to the end handler.
type Outcome int

const (
	// OutcomeVictory means the enemy was defeated.
	OutcomeVictory Outcome = iota
	// OutcomeDefeat means the player was defeated.
	OutcomeDefeat
	// OutcomeFled means the player escaped without resolution.
	OutcomeFled
)

// String returns "victory", "defeat", or "flee".
func (o Outcome) String() string {
	switch o {
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	default:
		return "flee"
	}
}

// EndData is handed to the EndHandler exactly once when the battle resolves.
type EndData struct {
	Outcome      Outcome
	GoldReward   int
	XPReward     int
	GoldLost     int
	OldLevel     int
	NewLevel     int
	LevelsGained int
	DungeonID    string
	Floor        int
	// ReturnTo is the presentation target supplied at battle start.
	ReturnTo string
}

// EndHandler receives the battle result. Invoked exactly once per battle.
type EndHandler func(EndData)

// Errors returned by Act. None of them consume the player's turn.
var (
	// ErrActionInFlight is returned while a previous action is still resolving.
	ErrActionInFlight = errors.New("combat: an action is already resolving")
	// ErrNotPlayerTurn is returned when the battle is not awaiting a player action.
	ErrNotPlayerTurn = errors.New("combat: not the player's turn")
	// ErrInsufficientMana is returned when Magic is attempted without the mana for it.
	ErrInsufficientMana = errors.New("combat: insufficient mana")
	// ErrInvalidAction is returned for unknown or enemy-only action types.
	ErrInvalidAction = errors.New("combat: invalid player action")
)

// Params configures a new battle.
type Params struct {
	// State is the live character record rewards and damage resolve against.
	State *character.State
	// Catalog resolves consumables used mid-battle.
	Catalog character.ItemSource
	// Enemy is the unscaled enemy template.
	Enemy *enemy.Template
	// Floor and Tier scale the enemy and the victory rewards.
	Floor int
	Tier  enemy.Tier
	// DungeonID and ReturnTo are echoed back in EndData for the presenter.
	DungeonID string
	ReturnTo  string

	Config config.GameConfig
	// Source supplies randomness; defaults to crypto/rand.
	Source dice.Source
	// AI picks enemy actions; defaults to AlwaysAttack.
	AI EnemyAI
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// OnEnd is invoked exactly once when the battle resolves. May be nil.
	OnEnd EndHandler
}

// Battle is the live state of one encounter. Not safe for concurrent use;
// the engine runs on a single logical thread and guards re-entrancy with a
// flag rather than a lock.
type Battle struct {
	id      uuid.UUID
	cfg     config.GameConfig
	state   *character.State
	catalog character.ItemSource
	player  character.CombatStats
	enemy   *enemy.Scaled
	ai      EnemyAI
	src     dice.Source
	logger  *zap.Logger

	phase     Phase
	round     int
	defending bool
	inFlight  bool
	ended     bool

	dungeonID string
	floor     int
	returnTo  string
	onEnd     EndHandler
}

// NewBattle snapshots the player's effective stats and scales the enemy for
// the given floor and tier. The battle starts in PhaseIntro.
//
// Precondition: p.State and p.Enemy must be non-nil.
// Postcondition: Returns a battle ready for Begin, or a non-nil error.
func NewBattle(p Params) (*Battle, error) {
	if p.State == nil {
		return nil, fmt.Errorf("combat: NewBattle: State must not be nil")
	}
	if p.Enemy == nil {
		return nil, fmt.Errorf("combat: NewBattle: Enemy must not be nil")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("combat: NewBattle: Catalog must not be nil")
	}
	floor := p.Floor
	if floor < 1 {
		floor = 1
	}
	src := p.Source
	if src == nil {
		src = dice.NewCryptoSource()
	}
	ai := p.AI
	if ai == nil {
		ai = AlwaysAttack{}
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Battle{
		id:        uuid.New(),
		cfg:       p.Config,
		state:     p.State,
		catalog:   p.Catalog,
		player:    p.State.CombatSnapshot(),
		enemy:     enemy.Scale(p.Enemy, floor, p.Tier),
		ai:        ai,
		src:       src,
		logger:    logger,
		phase:     PhaseIntro,
		round:     1,
		dungeonID: p.DungeonID,
		floor:     floor,
		returnTo:  p.ReturnTo,
		onEnd:     p.OnEnd,
	}
	b.logger.Debug("battle created",
		zap.String("battle_id", b.id.String()),
		zap.String("enemy", p.Enemy.ID),
		zap.Int("floor", floor),
		zap.Int("tier", int(p.Tier)),
	)
	return b, nil
}

// ID returns the unique battle identifier.
func (b *Battle) ID() uuid.UUID { return b.id }

// Phase returns the current state machine position.
func (b *Battle) Phase() Phase { return b.phase }

// Round returns the current round number, starting at 1.
func (b *Battle) Round() int { return b.round }

// PlayerStats returns the transient player snapshot.
func (b *Battle) PlayerStats() character.CombatStats { return b.player }

// Enemy returns the scaled enemy instance.
func (b *Battle) Enemy() *enemy.Scaled { return b.enemy }

// Defending reports whether the halve-next-damage flag is set.
func (b *Battle) Defending() bool { return b.defending }

// Begin acknowledges the opening message and starts the first player turn.
//
// Precondition: phase must be PhaseIntro.
func (b *Battle) Begin() error {
	if b.phase != PhaseIntro {
		return fmt.Errorf("combat: Begin called in phase %s", b.phase)
	}
	b.phase = PhasePlayerTurn
	return nil
}

// Act resolves one player action and, unless the battle ended or the action
// was rejected, the enemy's counter-action. Only one action may be in flight
// at a time; the guard is a flag, not a lock, since there is one actor.
//
// Rejected actions (insufficient mana, missing item, wrong phase) return an
// error without consuming the turn.
//
// Postcondition: on success the returned report lists every event in order
// and the phase the battle is now in.
func (b *Battle) Act(a Action) (*TurnReport, error) {
	if b.inFlight {
		return nil, ErrActionInFlight
	}
	if b.phase != PhasePlayerTurn {
		return nil, ErrNotPlayerTurn
	}
	b.inFlight = true
	defer func() { b.inFlight = false }()

	report := &TurnReport{}
	var err error
	switch a.Type {
	case ActionAttack:
		b.playerAttack(report)
	case ActionMagic:
		err = b.playerMagic(report)
	case ActionDefend:
		b.playerDefend(report)
	case ActionItem:
		err = b.playerItem(a.ItemID, report)
	case ActionFlee:
		b.playerFlee(report)
	default:
		err = fmt.Errorf("%w: %s", ErrInvalidAction, a.Type)
	}
	if err != nil {
		return nil, err
	}

	// Victory skips the enemy turn entirely; flee success ends the battle.
	if b.phase == PhasePlayerTurn || b.phase == PhaseEnemyTurn {
		if b.enemy.IsDead() {
			b.finish(OutcomeVictory)
		} else {
			b.enemyTurn(report)
		}
	}

	report.Phase = b.phase
	return report, nil
}

func (b *Battle) playerAttack(report *TurnReport) {
	dmg := b.attackDamage(b.player.Attack, b.enemy.Defense)
	b.enemy.ApplyDamage(dmg)
	report.Events = append(report.Events, TurnEvent{
		Actor:     ActorPlayer,
		Action:    ActionAttack,
		Damage:    dmg,
		Narrative: fmt.Sprintf("You strike the %s for %d damage.", b.enemy.Template.Name, dmg),
	})
	b.phase = PhaseEnemyTurn
}

func (b *Battle) playerMagic(report *TurnReport) error {
	if b.player.Mana < b.cfg.MagicCost {
		return ErrInsufficientMana
	}
	b.player.Mana -= b.cfg.MagicCost
	scaled := int(math.Round(float64(b.player.Attack) * b.cfg.MagicMultiplier))
	dmg := scaled - b.enemy.Defense
	if dmg < 1 {
		dmg = 1
	}
	b.enemy.ApplyDamage(dmg)
	report.Events = append(report.Events, TurnEvent{
		Actor:     ActorPlayer,
		Action:    ActionMagic,
		Damage:    dmg,
		Narrative: fmt.Sprintf("Your spell sears the %s for %d damage.", b.enemy.Template.Name, dmg),
	})
	b.phase = PhaseEnemyTurn
	return nil
}

func (b *Battle) playerDefend(report *TurnReport) {
	b.defending = true
	report.Events = append(report.Events, TurnEvent{
		Actor:     ActorPlayer,
		Action:    ActionDefend,
		Narrative: "You brace for the next attack.",
	})
	b.phase = PhaseEnemyTurn
}

func (b *Battle) playerItem(itemID string, report *TurnReport) error {
	def, ok := b.catalog.Item(itemID)
	if !ok {
		return fmt.Errorf("combat: use %q: %w", itemID, character.ErrUnknownItem)
	}
	if def.Kind != item.KindConsumable || def.Effect == nil {
		return fmt.Errorf("combat: use %q: not a consumable", itemID)
	}
	if !b.state.RemoveItem(itemID, 1) {
		return fmt.Errorf("combat: use %q: %w", itemID, character.ErrNotInInventory)
	}

	ev := TurnEvent{Actor: ActorPlayer, Action: ActionItem}
	switch def.Effect.Type {
	case item.EffectHeal:
		before := b.player.HP
		b.player.HP += def.Effect.Value
		if b.player.HP > b.player.MaxHP {
			b.player.HP = b.player.MaxHP
		}
		ev.Healed = b.player.HP - before
		ev.Narrative = fmt.Sprintf("You drink the %s and recover %d health.", def.Name, ev.Healed)
	case item.EffectManaRestore:
		before := b.player.Mana
		b.player.Mana += def.Effect.Value
		if b.player.Mana > b.player.MaxMana {
			b.player.Mana = b.player.MaxMana
		}
		ev.ManaRestored = b.player.Mana - before
		ev.Narrative = fmt.Sprintf("You drink the %s and recover %d mana.", def.Name, ev.ManaRestored)
	}
	report.Events = append(report.Events, ev)
	b.phase = PhaseEnemyTurn
	return nil
}

func (b *Battle) playerFlee(report *TurnReport) {
	p := b.cfg.FleeBaseChance + b.cfg.FleeLuckStep*float64(b.player.Luck)
	if p > b.cfg.FleeMaxChance {
		p = b.cfg.FleeMaxChance
	}
	if dice.Chance(b.src, p) {
		report.Events = append(report.Events, TurnEvent{
			Actor:     ActorPlayer,
			Action:    ActionFlee,
			Success:   true,
			Narrative: "You slip away from the fight.",
		})
		b.finish(OutcomeFled)
		return
	}
	report.Events = append(report.Events, TurnEvent{
		Actor:     ActorPlayer,
		Action:    ActionFlee,
		Narrative: "You fail to escape!",
	})
	b.phase = PhaseEnemyTurn
}

// enemyTurn resolves the enemy's counter-action and returns play to the
// player (with mana regen) or ends the battle in defeat.
func (b *Battle) enemyTurn(report *TurnReport) {
	action := b.ai.ChooseAction(EnemyView{
		Round:       b.round,
		EnemyHP:     b.enemy.HP,
		EnemyMaxHP:  b.enemy.MaxHP,
		PlayerHP:    b.player.HP,
		PlayerMaxHP: b.player.MaxHP,
	})

	switch action {
	case ActionWait:
		report.Events = append(report.Events, TurnEvent{
			Actor:     ActorEnemy,
			Action:    ActionWait,
			Narrative: fmt.Sprintf("The %s hesitates.", b.enemy.Template.Name),
		})
	default:
		dmg := b.attackDamage(b.enemy.Attack, b.player.Defense)
		if b.defending {
			dmg /= 2
			if dmg < 1 {
				dmg = 1
			}
		}
		b.player.HP -= dmg
		if b.player.HP < 0 {
			b.player.HP = 0
		}
		report.Events = append(report.Events, TurnEvent{
			Actor:     ActorEnemy,
			Action:    ActionAttack,
			Damage:    dmg,
			Narrative: fmt.Sprintf("The %s hits you for %d damage.", b.enemy.Template.Name, dmg),
		})
	}
	// The defend flag covers one round only.
	b.defending = false

	if b.player.HP <= 0 {
		b.finish(OutcomeDefeat)
		return
	}

	b.round++
	b.phase = PhasePlayerTurn
	b.regenMana()
}

// regenMana applies start-of-turn regen: the configured base plus the
// equipment bonus captured in the snapshot, clamped to the snapshot maximum.
func (b *Battle) regenMana() {
	regen := b.cfg.BaseManaRegen + b.player.ManaRegen
	if regen <= 0 {
		return
	}
	b.player.Mana += regen
	if b.player.Mana > b.player.MaxMana {
		b.player.Mana = b.player.MaxMana
	}
}

// attackDamage computes max(1, atk-def) plus a small random variance.
//
// Postcondition: result >= 1.
func (b *Battle) attackDamage(atk, def int) int {
	base := atk - def
	if base < 1 {
		base = 1
	}
	return base + b.src.Intn(3)
}

// finish writes the battle snapshot back to the character state, applies the
// outcome's permanent effects, and invokes the end handler exactly once.
func (b *Battle) finish(outcome Outcome) {
	if b.ended {
		return
	}
	b.ended = true

	b.state.SetHealth(b.player.HP)
	b.state.SetMana(b.player.Mana)

	data := EndData{
		Outcome:   outcome,
		OldLevel:  b.state.Level(),
		NewLevel:  b.state.Level(),
		DungeonID: b.dungeonID,
		Floor:     b.floor,
		ReturnTo:  b.returnTo,
	}

	switch outcome {
	case OutcomeVictory:
		b.phase = PhaseVictory
		data.GoldReward = GoldReward(b.enemy.Template.BaseGold, b.floor)
		data.XPReward = XPReward(b.enemy.Template.BaseXP, b.floor)
		b.state.AddGold(data.GoldReward)
		r := b.state.AddXP(data.XPReward)
		data.OldLevel = r.OldLevel
		data.NewLevel = r.NewLevel
		data.LevelsGained = r.LevelsGained
		b.state.RecordVictory()

	case OutcomeDefeat:
		b.phase = PhaseDefeat
		b.state.RecordDefeat()
		data.GoldLost = b.state.ApplyGoldPenalty(b.cfg.DefeatGoldPenalty)
		// Leave the player standing so the session is not stuck at 0 HP.
		recover := int(b.cfg.DefeatRecoverFraction * float64(b.state.EffectiveMaxHealth()))
		if recover < 1 {
			recover = 1
		}
		b.state.SetHealth(recover)
		b.state.ClearDungeon()

	case OutcomeFled:
		b.phase = PhaseFled
	}

	b.logger.Info("battle resolved",
		zap.String("battle_id", b.id.String()),
		zap.String("outcome", outcome.String()),
		zap.Int("gold_reward", data.GoldReward),
		zap.Int("xp_reward", data.XPReward),
		zap.Int("levels_gained", data.LevelsGained),
	)

	if b.onEnd != nil {
		b.onEnd(data)
	}
}
