package combat

// ActionType identifies what a combatant does on their turn.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionType int

const (
	ActionUnknown ActionType = iota // zero value; intentionally invalid
	ActionAttack
	ActionMagic
	ActionDefend
	ActionItem
	ActionFlee
	// ActionWait is only ever chosen by enemy AI.
	ActionWait
)

// String returns the human-readable name of the ActionType.
//
// Postcondition: returns "unknown" for unrecognized values.
func (a ActionType) String() string {
	switch a {
	case ActionAttack:
		return "attack"
	case ActionMagic:
		return "magic"
	case ActionDefend:
		return "defend"
	case ActionItem:
		return "item"
	case ActionFlee:
		return "flee"
	case ActionWait:
		return "wait"
	default:
		return "unknown"
	}
}

// Action is one player intent for a turn. ItemID is set only for ActionItem.
type Action struct {
	Type   ActionType
	ItemID string
}

// Actor identifies which side an event belongs to.
type Actor int

const (
	// ActorPlayer marks events caused by the player.
	ActorPlayer Actor = iota
	// ActorEnemy marks events caused by the enemy.
	ActorEnemy
)

// String returns "player" or "enemy".
func (a Actor) String() string {
	if a == ActorEnemy {
		return "enemy"
	}
	return "player"
}

// TurnEvent records what happened when one action was resolved.
type TurnEvent struct {
	Actor        Actor
	Action       ActionType
	Damage       int
	Healed       int
	ManaRestored int
	// Success is meaningful only for ActionFlee events.
	Success   bool
	Narrative string
}

// TurnReport collects the events produced by one player action and the
// enemy's counter-action, plus the phase the battle ended the turn in.
type TurnReport struct {
	Events []TurnEvent
	Phase  Phase
}
