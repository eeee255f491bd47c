package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/fullmoon-jpg/paceon-sub000/internal/feedsync"
	"github.com/fullmoon-jpg/paceon-sub000/internal/observability"
)

// publishEvent fans a feed event out to local websocket clients and, through
// Redis, to every other server instance.
func (s *Server) publishEvent(ev feedsync.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		observability.GlobalLogger.Error("failed to marshal feed event",
			slog.String("kind", string(ev.Kind)), slog.String("error", err.Error()))
		return
	}
	message := string(payload)

	if s.hub != nil {
		s.hub.BroadcastAll(message)
	}
	if s.notifier != nil {
		if err := s.notifier.PublishFeedEvent(context.Background(), message); err != nil {
			observability.GlobalLogger.Warn("failed to publish feed event",
				slog.String("kind", string(ev.Kind)), slog.String("error", err.Error()))
		}
	}
	observability.FeedEventsPublished.WithLabelValues(string(ev.Kind)).Inc()
}

func (s *Server) publishItemCreated(item feedsync.Item) {
	s.publishEvent(feedsync.Event{
		Kind:    feedsync.EventCreated,
		ItemID:  item.ID,
		ActorID: item.AuthorID,
		Item:    &item,
	})
}

func (s *Server) publishItemUpdated(item feedsync.Item, patch *feedsync.Patch) {
	s.publishEvent(feedsync.Event{
		Kind:    feedsync.EventUpdated,
		ItemID:  item.ID,
		ActorID: item.AuthorID,
		Item:    &item,
		Patch:   patch,
	})
}

func (s *Server) publishItemDeleted(itemID, actorID string) {
	s.publishEvent(feedsync.Event{
		Kind:    feedsync.EventDeleted,
		ItemID:  itemID,
		ActorID: actorID,
	})
}

// publishReactionChanged broadcasts a like-count change as an update patch so
// every viewer's counters converge without a refetch.
func (s *Server) publishReactionChanged(itemID, actorID string, likeCount int) {
	s.publishEvent(feedsync.Event{
		Kind:    feedsync.EventUpdated,
		ItemID:  itemID,
		ActorID: actorID,
		Patch:   &feedsync.Patch{LikeCount: &likeCount},
	})
}
