package feedsync

import (
	"context"
	"sync"
	"time"
)

// Store owns the ordered item list for one view plus its pagination
// cursor. Insertion order is arrival order, not necessarily
// chronological. All mutations run under the store lock as pure
// transformations of the latest snapshot, never blind overwrites of a
// stale captured copy.
type Store struct {
	mu       sync.Mutex
	api      API
	filter   Filter
	pageSize int

	items   []Item
	page    int
	hasMore bool
	loading bool
	lastErr string

	// since marks the newest point the poller has checked. loadGen and
	// sinceGen fence off results of superseded loads and slow polls.
	since    time.Time
	sinceGen uint64
	loadGen  uint64
}

// NewStore creates a store for the given filter. No fetch happens until
// LoadInitial is called.
func NewStore(api API, filter Filter, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Store{
		api:      api,
		filter:   filter,
		pageSize: pageSize,
		since:    time.Now(),
	}
}

// LoadInitial replaces the whole list with page 1 and resets the
// poller's "new since" timestamp. A failure keeps the existing list and
// records a recoverable error message. Concurrent loads are no-ops.
func (s *Store) LoadInitial(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	gen := s.loadGen
	filter, size := s.filter, s.pageSize
	s.mu.Unlock()

	res, err := s.api.FetchPage(ctx, filter, 1, size)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if gen != s.loadGen {
		// Superseded by a filter change; discard whatever arrived.
		return nil
	}
	if err != nil {
		if IsAborted(err) {
			return nil
		}
		s.lastErr = userMessage(err)
		return err
	}
	s.items = append([]Item(nil), res.Items...)
	s.page = 1
	s.hasMore = res.HasMore
	s.lastErr = ""
	s.since = time.Now()
	s.sinceGen++
	return nil
}

// LoadMore appends the next page and advances the cursor. It is a no-op
// while another load is in flight, before the initial load, or once
// hasMore is false for the current filter.
func (s *Store) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.loading || s.page == 0 || !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	gen := s.loadGen
	filter, size, next := s.filter, s.pageSize, s.page+1
	s.mu.Unlock()

	res, err := s.api.FetchPage(ctx, filter, next, size)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if gen != s.loadGen {
		return nil
	}
	if err != nil {
		if IsAborted(err) {
			return nil
		}
		s.lastErr = userMessage(err)
		return err
	}
	s.items = appendPage(s.items, res.Items)
	s.page = next
	s.hasMore = res.HasMore
	s.lastErr = ""
	return nil
}

// ReplaceAll swaps in a fully refreshed list, e.g. when a view switches
// tabs with data it already holds.
func (s *Store) ReplaceAll(items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]Item(nil), items...)
	s.page = 1
	s.hasMore = true
	s.lastErr = ""
}

// SetFilter switches the active filter set. In-flight loads for the old
// filter are discarded on arrival, and the hasMore latch resets.
func (s *Store) SetFilter(filter Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if filter == s.filter {
		return
	}
	s.filter = filter
	s.page = 0
	s.hasMore = false
	s.loadGen++
}

// Apply folds a broadcast event into the list. Created events from the
// current user are skipped because the optimistic create path already
// inserted the item locally.
func (s *Store) Apply(ev Event, selfID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev.Kind {
	case EventCreated:
		if ev.Item == nil {
			return
		}
		if selfID != "" && ev.ActorID == selfID {
			return
		}
		s.items = mergeCreated(s.items, *ev.Item)
	case EventUpdated:
		if ev.Patch == nil {
			return
		}
		s.items = patchUpdated(s.items, ev.ItemID, *ev.Patch)
	case EventDeleted:
		s.items = removeDeleted(s.items, ev.ItemID)
	}
}

// Items returns a snapshot copy of the list.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

// Item returns the current state of one item by id.
func (s *Store) Item(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			return s.items[i], true
		}
	}
	return Item{}, false
}

// Contains reports whether id is already in the list.
func (s *Store) Contains(id string) bool {
	_, ok := s.Item(id)
	return ok
}

// Page returns the current page number, 0 before the initial load.
func (s *Store) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// HasMore reports whether another page fetch may be attempted.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Filter returns the active filter set.
func (s *Store) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// LastError returns the dismissible error message from the most recent
// failed load, or "".
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError dismisses the current error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

// Since returns the poller watermark and its generation. The generation
// changes whenever an initial load resets the watermark, so a slow poll
// cannot clobber a concurrent manual refresh.
func (s *Store) Since() (time.Time, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.since, s.sinceGen
}

// AdvanceSince moves the watermark forward if gen is still current.
// Returns false when a refresh won the race and the advance was dropped.
func (s *Store) AdvanceSince(t time.Time, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.sinceGen {
		return false
	}
	if t.After(s.since) {
		s.since = t
	}
	return true
}

// setLike overwrites the like state of one item; used both for the
// optimistic flip and for the server-authoritative reconcile.
func (s *Store) setLike(id string, liked bool, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Liked = liked
			s.items[i].LikeCount = clampCount(count)
			return
		}
	}
}

// setSave overwrites the save state of one item.
func (s *Store) setSave(id string, saved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Saved = saved
			return
		}
	}
}
