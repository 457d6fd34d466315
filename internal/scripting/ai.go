package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/studyquest/engine/internal/game/combat"
)

// chooseActionHook is the Lua global every behavior script must define.
// It receives a view table and returns "attack" or "wait".
const chooseActionHook = "choose_action"

// AIManager owns one sandboxed LState per behavior script and hands out
// combat.EnemyAI adapters bound to them.
//
// AIManager is safe for concurrent AI lookups after Load completes. Each
// script's LState is single-threaded; the mutex serializes hook calls.
type AIManager struct {
	mu      sync.Mutex
	states  map[string]*lua.LState
	cancels map[string]func()
	logger  *zap.Logger
}

// NewAIManager creates an empty AIManager.
//
// Precondition: logger must be non-nil.
func NewAIManager(logger *zap.Logger) *AIManager {
	return &AIManager{
		states:  make(map[string]*lua.LState),
		cancels: make(map[string]func()),
		logger:  logger,
	}
}

// Load executes every *.lua file in scriptDir, each in its own sandboxed VM,
// keyed by file name. Loading the same name again replaces the old VM.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Every script that defines choose_action is available via AI.
func (m *AIManager) Load(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	sort.Strings(luaFiles)

	for _, name := range luaFiles {
		L, cancel := NewSandboxedState(instLimit)
		if err := L.DoFile(filepath.Join(scriptDir, name)); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", name, err)
		}
		if L.GetGlobal(chooseActionHook) == lua.LNil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: script %q does not define %s", name, chooseActionHook)
		}

		m.mu.Lock()
		if old, ok := m.states[name]; ok {
			if oldCancel := m.cancels[name]; oldCancel != nil {
				oldCancel()
			}
			old.Close()
		}
		m.states[name] = L
		m.cancels[name] = cancel
		m.mu.Unlock()
	}
	return nil
}

// Has reports whether a behavior script with the given name is loaded.
func (m *AIManager) Has(script string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[script]
	return ok
}

// AI returns a combat.EnemyAI backed by the named script. If the script is
// not loaded, the default always-attack behavior is returned instead.
func (m *AIManager) AI(script string) combat.EnemyAI {
	if script == "" || !m.Has(script) {
		return combat.AlwaysAttack{}
	}
	return &scriptAI{m: m, script: script}
}

// Close shuts down every script VM.
func (m *AIManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, L := range m.states {
		if cancel := m.cancels[name]; cancel != nil {
			cancel()
		}
		L.Close()
	}
	m.states = make(map[string]*lua.LState)
	m.cancels = make(map[string]func())
}

// scriptAI adapts a loaded Lua script to combat.EnemyAI.
type scriptAI struct {
	m      *AIManager
	script string
}

// ChooseAction calls the script's choose_action hook with a view table.
// Lua runtime errors and unrecognized return values are logged at Warn level
// and fall back to attacking, so a broken script never stalls a battle.
func (a *scriptAI) ChooseAction(v combat.EnemyView) combat.ActionType {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()

	L, ok := a.m.states[a.script]
	if !ok {
		return combat.ActionAttack
	}

	view := L.NewTable()
	L.SetField(view, "round", lua.LNumber(v.Round))
	L.SetField(view, "enemy_hp", lua.LNumber(v.EnemyHP))
	L.SetField(view, "enemy_max_hp", lua.LNumber(v.EnemyMaxHP))
	L.SetField(view, "player_hp", lua.LNumber(v.PlayerHP))
	L.SetField(view, "player_max_hp", lua.LNumber(v.PlayerMaxHP))

	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(chooseActionHook),
		NRet:    1,
		Protect: true,
	}, view); err != nil {
		a.m.logger.Warn("scripting: Lua runtime error",
			zap.String("script", a.script),
			zap.Error(err),
		)
		return combat.ActionAttack
	}

	ret := L.Get(-1)
	L.Pop(1)

	switch lua.LVAsString(ret) {
	case "wait":
		return combat.ActionWait
	case "attack":
		return combat.ActionAttack
	default:
		a.m.logger.Warn("scripting: unrecognized action from script",
			zap.String("script", a.script),
			zap.String("value", lua.LVAsString(ret)),
		)
		return combat.ActionAttack
	}
}
