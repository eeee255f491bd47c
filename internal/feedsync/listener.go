package feedsync

import (
	"context"
	"log/slog"
	"sync"
)

// Listener consumes the typed broadcast event stream for a scope and
// folds each event into the store through the id-keyed reducers. The
// subscription lives from Start to Stop; nothing dangles after the
// owning view goes away.
type Listener struct {
	mu          sync.Mutex
	store       *Store
	selfID      string
	logger      *slog.Logger
	unsubscribe func()
}

// NewListener creates a listener bound to one store. selfID suppresses
// created events that originated from the current user's own action,
// which the optimistic create path already inserted locally.
func NewListener(store *Store, selfID string, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{store: store, selfID: selfID, logger: logger}
}

// Start subscribes to the scope. Starting twice replaces the previous
// subscription.
func (l *Listener) Start(ctx context.Context, b Broadcaster, scope string) error {
	unsub, err := b.Subscribe(ctx, scope, func(ev Event) {
		l.store.Apply(ev, l.selfID)
	})
	if err != nil {
		l.logger.Warn("broadcast subscribe failed",
			slog.String("scope", scope),
			slog.String("error", err.Error()),
		)
		return NewTransientError(err)
	}

	l.mu.Lock()
	prev := l.unsubscribe
	l.unsubscribe = unsub
	l.mu.Unlock()
	if prev != nil {
		prev()
	}
	return nil
}

// Stop ends the subscription. Safe to call more than once.
func (l *Listener) Stop() {
	l.mu.Lock()
	unsub := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
