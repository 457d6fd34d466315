package cloudsync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/studyquest/engine/internal/game/character"
)

// ErrNoSession is returned when no authenticated user is available. Callers
// treat it as "play offline", not as a failure.
var ErrNoSession = errors.New("cloudsync: no authenticated session")

// Reconciler pulls the remote character record into local state at session
// start and establishes the cloud identity autosaves write to.
type Reconciler struct {
	gw     Gateway
	logger *zap.Logger
}

// NewReconciler creates a Reconciler.
//
// Precondition: gw and logger must be non-nil.
func NewReconciler(gw Gateway, logger *zap.Logger) *Reconciler {
	return &Reconciler{gw: gw, logger: logger}
}

// SyncOnStartup establishes the cloud identity and overwrites local transient
// fields with the remote record (last-write-wins from the remote side).
// Remote inventory replaces the local one only when non-empty; dungeon
// progress is imported only for a genuinely active run.
//
// Returns ErrNoSession when there is no authenticated user; the caller keeps
// playing offline. Any other error leaves whatever was already applied; local
// state remains playable.
//
// Precondition: must not be called mid-battle.
func (r *Reconciler) SyncOnStartup(ctx context.Context, st *character.State) error {
	userID, rec, err := r.establish(ctx, st)
	if err != nil {
		return err
	}

	st.RestoreFromRemote(recordToSnapshot(rec))
	r.logger.Info("cloud character pulled",
		zap.String("user_id", userID),
		zap.String("character_id", rec.ID),
		zap.Int("level", rec.Level),
	)

	slots, err := r.gw.GetInventory(ctx, rec.ID)
	if err != nil {
		// The record pull already succeeded; a failed inventory fetch
		// leaves the local inventory untouched.
		r.logger.Warn("cloud inventory fetch failed", zap.Error(err))
		return fmt.Errorf("cloudsync: fetching inventory: %w", err)
	}
	items := make(map[string]int, len(slots))
	for _, s := range slots {
		items[s.ItemID] = s.Quantity
	}
	if !st.ReplaceInventory(items) {
		r.logger.Debug("remote inventory empty, keeping local items")
	}
	return nil
}

// InitializeNewGame establishes the cloud identity without pulling any
// progress, so subsequent autosaves have a record to write to.
func (r *Reconciler) InitializeNewGame(ctx context.Context, st *character.State) error {
	userID, rec, err := r.establish(ctx, st)
	if err != nil {
		return err
	}
	r.logger.Info("cloud character initialized",
		zap.String("user_id", userID),
		zap.String("character_id", rec.ID),
	)
	return nil
}

// establish resolves the user, fetches or creates the remote record, and
// binds the cloud identity to the state.
func (r *Reconciler) establish(ctx context.Context, st *character.State) (string, *CharacterRecord, error) {
	userID, err := r.gw.CurrentUserID(ctx)
	if err != nil {
		r.logger.Warn("cloud user lookup failed", zap.Error(err))
		return "", nil, fmt.Errorf("cloudsync: resolving user: %w", err)
	}
	if userID == "" {
		return "", nil, ErrNoSession
	}

	rec, err := r.gw.GetOrCreateCharacter(ctx, userID)
	if err != nil {
		r.logger.Warn("cloud character fetch failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return "", nil, fmt.Errorf("cloudsync: fetching character: %w", err)
	}

	if err := st.SetCloudIdentity(userID, rec.ID); err != nil {
		return "", nil, fmt.Errorf("cloudsync: binding identity: %w", err)
	}
	return userID, rec, nil
}
