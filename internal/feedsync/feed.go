package feedsync

import (
	"context"
	"log/slog"
	"time"
)

// Options configures one Feed instance.
type Options struct {
	// UserID is the authenticated user, used for toggle calls and for
	// suppressing self-authored broadcast creates.
	UserID string
	// Filter is the initial filter set. Defaults to FilterAll.
	Filter Filter
	// PageSize for pagination. Defaults to 10.
	PageSize int
	// PollInterval and PollBudget configure the background poller.
	// Zero values fall back to the poller defaults.
	PollInterval time.Duration
	PollBudget   time.Duration
	// Cooldown is the guard release delay after a toggle settles.
	Cooldown time.Duration
	// Scope names the broadcast channel to subscribe to. Empty disables
	// the broadcast listener.
	Scope string
	// OnNotice receives user-visible messages (toggle failures, rate
	// limits). May be nil.
	OnNotice func(Notice)
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Feed is the per-view facade over the sync layer: one store, one
// mutation tracker, one poller and one broadcast listener sharing the
// same item list.
type Feed struct {
	store    *Store
	tracker  *Tracker
	poller   *Poller
	listener *Listener
	scope    string
	logger   *slog.Logger
	cancel   context.CancelFunc
}

// New assembles a feed engine. Nothing runs until Start.
func New(api API, opts Options) *Feed {
	filter := opts.Filter
	if filter == "" {
		filter = FilterAll
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := NewStore(api, filter, opts.PageSize)
	tracker := NewTracker(api, store, opts.UserID, opts.OnNotice)
	if opts.Cooldown > 0 {
		tracker.SetCooldown(opts.Cooldown)
	}
	poller := NewPoller(api, store, logger)
	if opts.PollInterval > 0 && opts.PollBudget > 0 {
		poller.SetInterval(opts.PollInterval, opts.PollBudget)
	}

	return &Feed{
		store:    store,
		tracker:  tracker,
		poller:   poller,
		listener: NewListener(store, opts.UserID, logger),
		scope:    opts.Scope,
		logger:   logger,
	}
}

// Start performs the initial load, then begins polling and, when a
// scope and broadcaster are configured, the broadcast subscription.
// Close tears all of it down. b may be nil.
func (f *Feed) Start(ctx context.Context, b Broadcaster) error {
	ctx, f.cancel = context.WithCancel(ctx)

	// A failed initial load is recoverable: the view renders the
	// store's error message with a retry button while polling keeps
	// the engine live.
	if err := f.store.LoadInitial(ctx); err != nil {
		f.logger.Warn("initial feed load failed", slog.String("error", err.Error()))
	}
	f.poller.Start(ctx)
	if b != nil && f.scope != "" {
		if err := f.listener.Start(ctx, b, f.scope); err != nil {
			return err
		}
	}
	return nil
}

// Close stops polling, ends the broadcast subscription and aborts any
// in-flight fetches. Their results are discarded on arrival.
func (f *Feed) Close() {
	if f.cancel != nil {
		f.cancel()
	}
	f.poller.Stop()
	f.listener.Stop()
}

// Store exposes the underlying list state for rendering.
func (f *Feed) Store() *Store { return f.store }

// LoadInitial refreshes the whole list.
func (f *Feed) LoadInitial(ctx context.Context) error { return f.store.LoadInitial(ctx) }

// LoadMore fetches the next page.
func (f *Feed) LoadMore(ctx context.Context) error { return f.store.LoadMore(ctx) }

// ToggleLike flips the like state of an item optimistically.
func (f *Feed) ToggleLike(ctx context.Context, itemID string) error {
	return f.tracker.ToggleLike(ctx, itemID)
}

// ToggleSave flips the saved state of an item optimistically.
func (f *Feed) ToggleSave(ctx context.Context, itemID string) error {
	return f.tracker.ToggleSave(ctx, itemID)
}

// PendingNew returns the unseen-item count for the "load new posts"
// affordance.
func (f *Feed) PendingNew() int { return f.poller.Pending() }

// MergeNew loads the unseen items via a fresh initial load.
func (f *Feed) MergeNew(ctx context.Context) error { return f.poller.MergeNew(ctx) }

// Items returns a snapshot of the rendered list.
func (f *Feed) Items() []Item { return f.store.Items() }
