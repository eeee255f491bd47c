package feedsync

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// apiStub is a scriptable stub for the API interface.
type apiStub struct {
	fetchPageFn   func(context.Context, Filter, int, int) (PageResult, error)
	fetchRecentFn func(context.Context, time.Time) ([]Item, error)
	toggleLikeFn  func(context.Context, string, string) (LikeResult, error)
	toggleSaveFn  func(context.Context, string, string) (SaveResult, error)
	createItemFn  func(context.Context, Draft) (Item, error)
	updateItemFn  func(context.Context, string, Patch) (Item, error)
	deleteItemFn  func(context.Context, string) error
}

func (s *apiStub) FetchPage(ctx context.Context, f Filter, page, size int) (PageResult, error) {
	return s.fetchPageFn(ctx, f, page, size)
}
func (s *apiStub) FetchRecent(ctx context.Context, since time.Time) ([]Item, error) {
	return s.fetchRecentFn(ctx, since)
}
func (s *apiStub) ToggleLike(ctx context.Context, itemID, userID string) (LikeResult, error) {
	return s.toggleLikeFn(ctx, itemID, userID)
}
func (s *apiStub) ToggleSave(ctx context.Context, itemID, userID string) (SaveResult, error) {
	return s.toggleSaveFn(ctx, itemID, userID)
}
func (s *apiStub) CreateItem(ctx context.Context, d Draft) (Item, error) {
	return s.createItemFn(ctx, d)
}
func (s *apiStub) UpdateItem(ctx context.Context, itemID string, p Patch) (Item, error) {
	return s.updateItemFn(ctx, itemID, p)
}
func (s *apiStub) DeleteItem(ctx context.Context, itemID string) error {
	return s.deleteItemFn(ctx, itemID)
}

func noopAPI() *apiStub {
	return &apiStub{
		fetchPageFn: func(_ context.Context, _ Filter, _, _ int) (PageResult, error) {
			return PageResult{}, nil
		},
		fetchRecentFn: func(_ context.Context, _ time.Time) ([]Item, error) { return nil, nil },
		toggleLikeFn:  func(_ context.Context, _, _ string) (LikeResult, error) { return LikeResult{}, nil },
		toggleSaveFn:  func(_ context.Context, _, _ string) (SaveResult, error) { return SaveResult{}, nil },
		createItemFn:  func(_ context.Context, _ Draft) (Item, error) { return Item{}, nil },
		updateItemFn:  func(_ context.Context, _ string, _ Patch) (Item, error) { return Item{}, nil },
		deleteItemFn:  func(_ context.Context, _ string) error { return nil },
	}
}

// makeItems builds n items with ids "p1".."pn" in order.
func makeItems(n int) []Item {
	items := make([]Item, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, Item{
			ID:       fmt.Sprintf("p%d", i),
			AuthorID: "u1",
			Body:     fmt.Sprintf("post %d", i),
		})
	}
	return items
}

// stubBroadcaster hands events to the most recent subscriber.
type stubBroadcaster struct {
	mu      sync.Mutex
	handler func(Event)
	unsubs  int
}

func (b *stubBroadcaster) Subscribe(_ context.Context, _ string, handler func(Event)) (func(), error) {
	b.mu.Lock()
	b.handler = handler
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		b.handler = nil
		b.unsubs++
		b.mu.Unlock()
	}, nil
}

func (b *stubBroadcaster) emit(ev Event) {
	b.mu.Lock()
	handler := b.handler
	b.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
}
