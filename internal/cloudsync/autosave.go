package cloudsync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/studyquest/engine/internal/game/character"
)

const (
	// autosaveQueueSize bounds the number of pending save requests. When the
	// queue is full new requests are dropped; a later transition will save a
	// fresher snapshot anyway.
	autosaveQueueSize = 16
	// autosaveTimeout bounds one remote write batch.
	autosaveTimeout = 10 * time.Second
)

// saveRequest is a consistent snapshot captured synchronously at enqueue
// time, so the write reflects the state as of the triggering transition even
// though it completes later.
type saveRequest struct {
	characterID string
	snap        character.RemoteSnapshot
	items       map[string]int
}

// Autosaver pushes best-effort character saves on a background goroutine.
// Failures are logged and swallowed; gameplay proceeds offline.
type Autosaver struct {
	gw       Gateway
	logger   *zap.Logger
	requests chan saveRequest
	done     chan struct{}
}

// NewAutosaver creates an Autosaver and starts its worker goroutine.
//
// Precondition: gw and logger must be non-nil.
// Postcondition: the caller must call Close to flush and stop the worker.
func NewAutosaver(gw Gateway, logger *zap.Logger) *Autosaver {
	a := &Autosaver{
		gw:       gw,
		logger:   logger,
		requests: make(chan saveRequest, autosaveQueueSize),
		done:     make(chan struct{}),
	}
	go a.run()
	return a
}

// Save enqueues a fire-and-forget save of the state's current snapshot.
// A state with no cloud identity, or a full queue, drops the request.
//
// Postcondition: never blocks and never fails; the snapshot is captured
// before Save returns.
func (a *Autosaver) Save(st *character.State) {
	id, ok := st.CloudIdentity()
	if !ok {
		return
	}
	req := saveRequest{
		characterID: id.CharacterID,
		snap:        st.ExportRemote(),
		items:       st.Items(),
	}
	select {
	case a.requests <- req:
	default:
		a.logger.Warn("autosave queue full, dropping request",
			zap.String("character_id", req.characterID),
		)
	}
}

// Attach subscribes the autosaver to the state transitions that warrant a
// save: equipment changes, gold changes (victory rewards, purchases, defeat
// penalties) and dungeon transitions.
func (a *Autosaver) Attach(st *character.State) {
	st.Subscribe(func(e character.Event) {
		switch e.(type) {
		case character.EquipmentChanged, character.GoldChanged, character.DungeonChanged:
			a.Save(st)
		}
	})
}

// Close stops accepting requests, drains the queue, and waits for the worker
// to finish.
func (a *Autosaver) Close() {
	close(a.requests)
	<-a.done
}

func (a *Autosaver) run() {
	defer close(a.done)
	for req := range a.requests {
		a.write(req)
	}
}

// write pushes one snapshot. Each partial failure is logged and the rest of
// the batch still runs, so a transient error loses as little as possible.
func (a *Autosaver) write(req saveRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()

	if err := a.gw.SaveCharacter(ctx, req.characterID, req.snap); err != nil {
		a.logger.Warn("autosave character failed",
			zap.String("character_id", req.characterID),
			zap.Error(err),
		)
	}
	if err := a.gw.SaveInventory(ctx, req.characterID, req.items); err != nil {
		a.logger.Warn("autosave inventory failed",
			zap.String("character_id", req.characterID),
			zap.Error(err),
		)
	}
	if err := a.gw.SaveDungeonProgress(ctx, req.characterID, req.snap.DungeonID, req.snap.FloorNumber); err != nil {
		a.logger.Warn("autosave dungeon progress failed",
			zap.String("character_id", req.characterID),
			zap.Error(err),
		)
	}
}
