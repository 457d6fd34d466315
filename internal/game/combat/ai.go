package combat

// EnemyView is the read-only battle snapshot an enemy AI sees when choosing
// its action.
type EnemyView struct {
	Round       int
	EnemyHP     int
	EnemyMaxHP  int
	PlayerHP    int
	PlayerMaxHP int
}

// EnemyAI chooses the enemy's action each enemy turn. Implementations must
// return ActionAttack or ActionWait; anything else is treated as ActionAttack.
type EnemyAI interface {
	ChooseAction(v EnemyView) ActionType
}

// AlwaysAttack is the default enemy behavior.
type AlwaysAttack struct{}

// ChooseAction returns ActionAttack unconditionally.
func (AlwaysAttack) ChooseAction(EnemyView) ActionType { return ActionAttack }
