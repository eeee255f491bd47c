package feedsync

import (
	"context"
	"sync"
	"time"
)

// MutationState tracks one in-flight toggle through its lifecycle.
type MutationState int

const (
	StateIdle MutationState = iota
	StatePending
	StateCommitted
	StateRolledBack
)

// Action identifies which boolean toggle a guard entry belongs to. A
// like and a save on the same item may be in flight at the same time;
// two likes may not.
type Action string

const (
	ActionLike Action = "like"
	ActionSave Action = "save"
)

// Notice is a user-visible message surfaced by the sync layer.
type Notice struct {
	Code    string
	Message string
}

const defaultCooldown = 400 * time.Millisecond

// Tracker applies boolean per-item toggles optimistically and reconciles
// them against the server response. The guard set enforces at most one
// outstanding remote call per (item, action); the final displayed count
// always comes from the last server-confirmed value, never from stacked
// optimistic deltas.
type Tracker struct {
	mu       sync.Mutex
	api      API
	store    *Store
	userID   string
	cooldown time.Duration
	inflight map[string]MutationState
	onNotice func(Notice)

	// after is swappable in tests to make the cool-down deterministic.
	after func(time.Duration, func()) *time.Timer
}

// NewTracker creates a tracker bound to one store and one user. onNotice
// may be nil.
func NewTracker(api API, store *Store, userID string, onNotice func(Notice)) *Tracker {
	return &Tracker{
		api:      api,
		store:    store,
		userID:   userID,
		cooldown: defaultCooldown,
		inflight: make(map[string]MutationState),
		onNotice: onNotice,
		after:    time.AfterFunc,
	}
}

// SetCooldown overrides the guard release delay.
func (t *Tracker) SetCooldown(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cooldown = d
}

// State returns the mutation state for one item and action.
func (t *Tracker) State(action Action, itemID string) MutationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.inflight[guardKey(action, itemID)]; ok {
		return st
	}
	return StateIdle
}

// ToggleLike optimistically flips the like state of itemID and issues
// the remote call. Rapid repeated calls while a toggle is pending or
// cooling down are rejected silently.
func (t *Tracker) ToggleLike(ctx context.Context, itemID string) error {
	if !t.acquire(ActionLike, itemID) {
		return nil
	}
	// Snapshot after acquiring the guard so the rollback target cannot
	// be another toggle's intermediate state.
	prev, ok := t.store.Item(itemID)
	if !ok {
		t.releaseNow(ActionLike, itemID)
		return t.notify(NewNotFoundError(itemID))
	}

	delta := 1
	if prev.Liked {
		delta = -1
	}
	t.store.setLike(itemID, !prev.Liked, prev.LikeCount+delta)

	res, err := t.api.ToggleLike(ctx, itemID, t.userID)
	if err != nil {
		t.store.setLike(itemID, prev.Liked, prev.LikeCount)
		t.release(ActionLike, itemID, StateRolledBack)
		if IsAborted(err) {
			return nil
		}
		return t.notify(err)
	}

	// Server is authoritative; a race may leave it disagreeing with the
	// optimistic guess.
	t.store.setLike(itemID, res.Liked, res.LikeCount)
	t.release(ActionLike, itemID, StateCommitted)
	return nil
}

// ToggleSave optimistically flips the saved state of itemID and issues
// the remote call. Same guard and rollback rules as ToggleLike.
func (t *Tracker) ToggleSave(ctx context.Context, itemID string) error {
	if !t.acquire(ActionSave, itemID) {
		return nil
	}
	prev, ok := t.store.Item(itemID)
	if !ok {
		t.releaseNow(ActionSave, itemID)
		return t.notify(NewNotFoundError(itemID))
	}

	t.store.setSave(itemID, !prev.Saved)

	res, err := t.api.ToggleSave(ctx, itemID, t.userID)
	if err != nil {
		t.store.setSave(itemID, prev.Saved)
		t.release(ActionSave, itemID, StateRolledBack)
		if IsAborted(err) {
			return nil
		}
		return t.notify(err)
	}

	t.store.setSave(itemID, res.Saved)
	t.release(ActionSave, itemID, StateCommitted)
	return nil
}

// acquire adds the guard entry, rejecting if one already exists.
func (t *Tracker) acquire(action Action, itemID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := guardKey(action, itemID)
	if _, busy := t.inflight[key]; busy {
		return false
	}
	t.inflight[key] = StatePending
	return true
}

// release records the terminal state and schedules removal of the guard
// entry after the cool-down. The delay absorbs double-clicks and rapid
// re-renders; releasing immediately on response would let a second
// toggle race the reconcile and leave the counter off by one.
func (t *Tracker) release(action Action, itemID string, final MutationState) {
	t.mu.Lock()
	key := guardKey(action, itemID)
	t.inflight[key] = final
	cooldown := t.cooldown
	after := t.after
	t.mu.Unlock()

	after(cooldown, func() {
		t.mu.Lock()
		delete(t.inflight, key)
		t.mu.Unlock()
	})
}

// releaseNow drops the guard without a cool-down; used when no remote
// call was issued.
func (t *Tracker) releaseNow(action Action, itemID string) {
	t.mu.Lock()
	delete(t.inflight, guardKey(action, itemID))
	t.mu.Unlock()
}

func (t *Tracker) notify(err error) error {
	if t.onNotice != nil {
		t.onNotice(Notice{Code: codeOf(err), Message: userMessage(err)})
	}
	return err
}

func guardKey(action Action, itemID string) string {
	return string(action) + ":" + itemID
}
