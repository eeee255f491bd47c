package feedsync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// periodicTask runs fn on an interval with a per-tick timeout budget.
// It is decoupled from any view lifecycle: Stop (or canceling the start
// context) ends the loop and waits for the current tick to finish.
type periodicTask struct {
	interval time.Duration
	budget   time.Duration
	fn       func(ctx context.Context)
	cancel   context.CancelFunc
	done     chan struct{}
}

func startPeriodic(ctx context.Context, interval, budget time.Duration, fn func(ctx context.Context)) *periodicTask {
	ctx, cancel := context.WithCancel(ctx)
	t := &periodicTask{
		interval: interval,
		budget:   budget,
		fn:       fn,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go t.run(ctx)
	return t
}

func (t *periodicTask) run(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick, cancel := context.WithTimeout(ctx, t.budget)
			t.fn(tick)
			cancel()
		}
	}
}

func (t *periodicTask) Stop() {
	t.cancel()
	<-t.done
}

// PollState is the poller's position in its cycle.
type PollState int

const (
	PollIdle PollState = iota
	PollPolling
	PollResultsPending
)

const (
	defaultPollInterval = 30 * time.Second
	defaultPollBudget   = 10 * time.Second
)

// Poller periodically asks the server what changed since the store's
// watermark and counts unseen items. It never merges results into the
// visible list on its own; merging is a deliberate user action through
// MergeNew. A tick that errors or times out is treated as "no new
// data", never surfaced as an error banner.
type Poller struct {
	mu       sync.Mutex
	api      API
	store    *Store
	interval time.Duration
	budget   time.Duration
	logger   *slog.Logger

	state   PollState
	pending int
	task    *periodicTask
}

// NewPoller creates a poller bound to one store. logger may be nil.
func NewPoller(api API, store *Store, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		api:      api,
		store:    store,
		interval: defaultPollInterval,
		budget:   defaultPollBudget,
		logger:   logger,
	}
}

// SetInterval overrides the tick interval and per-tick budget.
func (p *Poller) SetInterval(interval, budget time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interval = interval
	p.budget = budget
}

// Start begins polling until Stop is called or ctx is canceled. Starting
// an already running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.task != nil {
		return
	}
	p.task = startPeriodic(ctx, p.interval, p.budget, p.tick)
}

// Stop cancels the polling loop and waits for the in-flight tick. No
// state updates happen after Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	task := p.task
	p.task = nil
	p.mu.Unlock()
	if task != nil {
		task.Stop()
	}
}

// Pending returns how many unseen items the "load new posts" affordance
// should advertise.
func (p *Poller) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// State returns the poller's current cycle state.
func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// MergeNew performs the user-triggered merge: a full initial-load
// refresh rather than a naive prepend, so ordering and duplicates
// cannot conflict with items the user scrolled past. The pending
// counter resets even if the refresh fails; the error is surfaced
// through the store's recoverable error message.
func (p *Poller) MergeNew(ctx context.Context) error {
	p.mu.Lock()
	p.pending = 0
	p.state = PollIdle
	p.mu.Unlock()
	return p.store.LoadInitial(ctx)
}

// tick runs one poll round. The watermark advances on every attempt,
// returned results or not, so a dropped response cannot double-count on
// the next round. The advance is fenced by the watermark generation: if
// a manual refresh reset it mid-flight, the refresh wins.
func (p *Poller) tick(ctx context.Context) {
	since, gen := p.store.Since()
	start := time.Now()

	p.mu.Lock()
	if p.state == PollIdle {
		p.state = PollPolling
	}
	p.mu.Unlock()

	items, err := p.api.FetchRecent(ctx, since)
	p.store.AdvanceSince(start, gen)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if !IsAborted(err) {
			p.logger.Warn("feed poll failed", slog.String("error", err.Error()))
		}
		if p.state == PollPolling {
			p.state = PollIdle
		}
		return
	}

	fresh := 0
	for i := range items {
		if !p.store.Contains(items[i].ID) {
			fresh++
		}
	}
	if fresh > 0 {
		p.pending += fresh
		p.state = PollResultsPending
		return
	}
	if p.state == PollPolling {
		p.state = PollIdle
	}
}
