// Package main provides a Monte Carlo balance simulator: it runs scripted
// battles through the real engine and reports outcome rates and average
// rewards, so tuning changes in the game config can be evaluated offline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/studyquest/engine/internal/config"
	"github.com/studyquest/engine/internal/game/character"
	"github.com/studyquest/engine/internal/game/combat"
	"github.com/studyquest/engine/internal/game/dice"
	"github.com/studyquest/engine/internal/game/enemy"
	"github.com/studyquest/engine/internal/game/item"
	"github.com/studyquest/engine/internal/observability"
	"github.com/studyquest/engine/internal/scripting"
)

const potionThreshold = 0.3

type tally struct {
	battles    int
	victories  int
	defeats    int
	fled       int
	rounds     int
	goldReward int
	xpReward   int
	levelUps   int
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	itemsDir := flag.String("items-dir", "content/items", "path to item YAML definitions directory")
	enemiesDir := flag.String("enemies-dir", "content/enemies", "path to enemy YAML templates directory")
	aiScriptDir := flag.String("ai-scripts", "content/scripts/ai", "path to Lua enemy behavior scripts; empty = default AI")
	enemyID := flag.String("enemy", "", "enemy template id to fight; empty = all templates")
	floor := flag.Int("floor", 1, "dungeon floor to simulate")
	tier := flag.Int("tier", 1, "dungeon tier 1-4")
	battles := flag.Int("battles", 10000, "number of battles per enemy")
	potions := flag.Int("potions", 3, "healing potions carried into each battle")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	catalog, err := item.LoadCatalog(*itemsDir)
	if err != nil {
		logger.Fatal("loading item catalog", zap.Error(err))
	}

	templates, err := enemy.LoadTemplates(*enemiesDir)
	if err != nil {
		logger.Fatal("loading enemy templates", zap.Error(err))
	}

	aiMgr := scripting.NewAIManager(logger)
	defer aiMgr.Close()
	if *aiScriptDir != "" {
		if err := aiMgr.Load(*aiScriptDir, 0); err != nil {
			logger.Fatal("loading behavior scripts", zap.Error(err))
		}
	}

	var targets []*enemy.Template
	if *enemyID != "" {
		tmpl, ok := templates[*enemyID]
		if !ok {
			logger.Fatal("unknown enemy template", zap.String("enemy", *enemyID))
		}
		targets = append(targets, tmpl)
	} else {
		for _, tmpl := range templates {
			targets = append(targets, tmpl)
		}
		sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })
	}

	logger.Info("starting simulation",
		zap.Int("battles", *battles),
		zap.Int("floor", *floor),
		zap.Int("tier", *tier),
		zap.Int("enemies", len(targets)),
	)

	src := dice.NewCryptoSource()
	for _, tmpl := range targets {
		result, err := simulate(cfg.Game, catalog, tmpl, aiMgr, src, *floor, enemy.Tier(*tier), *battles, *potions)
		if err != nil {
			logger.Fatal("simulation failed", zap.String("enemy", tmpl.ID), zap.Error(err))
		}
		report(tmpl, *floor, result)
	}

	logger.Info("simulation complete", zap.Duration("elapsed", time.Since(start)))
}

// simulate runs n battles of a fresh level-1 character against the template
// and accumulates outcomes. The scripted policy drinks a potion below the
// health threshold, casts magic while mana lasts, and attacks otherwise.
func simulate(
	game config.GameConfig,
	catalog *item.Catalog,
	tmpl *enemy.Template,
	aiMgr *scripting.AIManager,
	src dice.Source,
	floor int,
	tier enemy.Tier,
	n, potions int,
) (*tally, error) {
	t := &tally{}

	for i := 0; i < n; i++ {
		st := character.New(catalog, game.StarterGold)
		if _, ok := catalog.Item(character.StarterPotionID); ok && potions > 0 {
			st.AddItem(character.StarterPotionID, potions)
		}

		b, err := combat.NewBattle(combat.Params{
			State:   st,
			Catalog: catalog,
			Enemy:   tmpl,
			Floor:   floor,
			Tier:    tier,
			Config:  game,
			Source:  src,
			AI:      aiMgr.AI(tmpl.AIScript),
			OnEnd: func(d combat.EndData) {
				switch d.Outcome {
				case combat.OutcomeVictory:
					t.victories++
					t.goldReward += d.GoldReward
					t.xpReward += d.XPReward
					t.levelUps += d.LevelsGained
				case combat.OutcomeDefeat:
					t.defeats++
				case combat.OutcomeFled:
					t.fled++
				}
			},
		})
		if err != nil {
			return nil, err
		}
		if err := b.Begin(); err != nil {
			return nil, err
		}

		for !b.Phase().Terminal() {
			if _, err := b.Act(chooseAction(b, game, st)); err != nil {
				return nil, err
			}
		}
		t.battles++
		t.rounds += b.Round()
	}
	return t, nil
}

func chooseAction(b *combat.Battle, game config.GameConfig, st *character.State) combat.Action {
	stats := b.PlayerStats()
	if float64(stats.HP) < potionThreshold*float64(stats.MaxHP) &&
		st.ItemQuantity(character.StarterPotionID) > 0 {
		return combat.Action{Type: combat.ActionItem, ItemID: character.StarterPotionID}
	}
	if stats.Mana >= game.MagicCost {
		return combat.Action{Type: combat.ActionMagic}
	}
	return combat.Action{Type: combat.ActionAttack}
}

func report(tmpl *enemy.Template, floor int, t *tally) {
	pct := func(n int) float64 {
		if t.battles == 0 {
			return 0
		}
		return 100 * float64(n) / float64(t.battles)
	}
	avg := func(n, over int) float64 {
		if over == 0 {
			return 0
		}
		return float64(n) / float64(over)
	}

	fmt.Fprintf(os.Stdout,
		"%s (floor %d): %d battles | win %.1f%% loss %.1f%% flee %.1f%% | avg rounds %.1f | avg gold %.1f | avg xp %.1f | level-ups %d\n",
		tmpl.ID, floor, t.battles,
		pct(t.victories), pct(t.defeats), pct(t.fled),
		avg(t.rounds, t.battles),
		avg(t.goldReward, t.victories),
		avg(t.xpReward, t.victories),
		t.levelUps,
	)
}
