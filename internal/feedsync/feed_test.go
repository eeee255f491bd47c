package feedsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_StartLoadsAndSubscribes(t *testing.T) {
	api := noopAPI()
	api.fetchPageFn = func(_ context.Context, _ Filter, _, _ int) (PageResult, error) {
		return PageResult{Items: makeItems(4), HasMore: true}, nil
	}
	bc := &stubBroadcaster{}

	feed := New(api, Options{
		UserID:       "u1",
		Scope:        "feed:all",
		PollInterval: time.Hour,
		PollBudget:   time.Second,
	})
	require.NoError(t, feed.Start(context.Background(), bc))
	defer feed.Close()

	assert.Len(t, feed.Items(), 4)

	// broadcast create from another user lands at the head
	bc.emit(Event{Kind: EventCreated, ItemID: "n1", ActorID: "u2", Item: &Item{ID: "n1"}})
	assert.Equal(t, "n1", feed.Items()[0].ID)

	// broadcast update patches in place
	body := "edited elsewhere"
	bc.emit(Event{Kind: EventUpdated, ItemID: "p2", Patch: &Patch{Body: &body}})
	it, ok := feed.Store().Item("p2")
	require.True(t, ok)
	assert.Equal(t, "edited elsewhere", it.Body)

	// broadcast delete removes by id
	bc.emit(Event{Kind: EventDeleted, ItemID: "p3"})
	assert.False(t, feed.Store().Contains("p3"))
}

func TestFeed_CloseEndsSubscription(t *testing.T) {
	api := noopAPI()
	bc := &stubBroadcaster{}

	feed := New(api, Options{
		UserID:       "u1",
		Scope:        "feed:all",
		PollInterval: time.Hour,
		PollBudget:   time.Second,
	})
	require.NoError(t, feed.Start(context.Background(), bc))

	feed.Close()

	bc.mu.Lock()
	defer bc.mu.Unlock()
	assert.Equal(t, 1, bc.unsubs)
	assert.Nil(t, bc.handler, "no dangling subscription after close")
}

func TestFeed_NilBroadcasterDisablesListener(t *testing.T) {
	feed := New(noopAPI(), Options{
		UserID:       "u1",
		PollInterval: time.Hour,
		PollBudget:   time.Second,
	})
	require.NoError(t, feed.Start(context.Background(), nil))
	feed.Close()
}

func TestFeed_PollThenManualMerge(t *testing.T) {
	phase2 := false
	api := noopAPI()
	api.fetchPageFn = func(_ context.Context, _ Filter, _, _ int) (PageResult, error) {
		if phase2 {
			return PageResult{Items: append([]Item{{ID: "n1"}}, makeItems(3)...), HasMore: true}, nil
		}
		return PageResult{Items: makeItems(3), HasMore: true}, nil
	}
	api.fetchRecentFn = func(_ context.Context, _ time.Time) ([]Item, error) {
		return []Item{{ID: "n1"}}, nil
	}

	feed := New(api, Options{
		UserID:       "u1",
		PollInterval: 5 * time.Millisecond,
		PollBudget:   time.Second,
	})
	require.NoError(t, feed.Start(context.Background(), nil))
	defer feed.Close()

	assert.Eventually(t, func() bool {
		return feed.PendingNew() > 0
	}, time.Second, time.Millisecond)

	// quiesce the poller so the merge outcome is deterministic
	feed.poller.Stop()

	phase2 = true
	require.NoError(t, feed.MergeNew(context.Background()))

	assert.Equal(t, 0, feed.PendingNew())
	assert.Equal(t, "n1", feed.Items()[0].ID)
}
