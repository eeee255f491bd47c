package feedsync

import (
	"context"
	"time"
)

// Filter selects which slice of the feed a view displays.
type Filter string

const (
	FilterAll   Filter = "all"
	FilterYours Filter = "yours"
)

// Item is the client-side working copy of a feed post. Counters are
// provisional until reconciled with a server response.
type Item struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	Body         string    `json:"body"`
	MediaURLs    []string  `json:"media_urls,omitempty"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	ShareCount   int       `json:"share_count"`
	Location     string    `json:"location,omitempty"`
	Category     string    `json:"category,omitempty"`
	Liked        bool      `json:"liked"`
	Saved        bool      `json:"saved"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Patch carries the changed fields of an updated item. Nil fields are
// left untouched when the patch is applied.
type Patch struct {
	Body         *string    `json:"body,omitempty"`
	MediaURLs    *[]string  `json:"media_urls,omitempty"`
	Location     *string    `json:"location,omitempty"`
	Category     *string    `json:"category,omitempty"`
	LikeCount    *int       `json:"like_count,omitempty"`
	CommentCount *int       `json:"comment_count,omitempty"`
	ShareCount   *int       `json:"share_count,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Draft is the payload for creating a new item.
type Draft struct {
	Body      string   `json:"body"`
	MediaURLs []string `json:"media_urls,omitempty"`
	Location  string   `json:"location,omitempty"`
	Category  string   `json:"category,omitempty"`
}

// PageResult is one page of the feed plus whether more pages exist.
type PageResult struct {
	Items   []Item `json:"items"`
	HasMore bool   `json:"has_more"`
}

// LikeResult is the server-authoritative outcome of a like toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// SaveResult is the server-authoritative outcome of a save toggle.
type SaveResult struct {
	Saved bool `json:"saved"`
}

// API is the remote boundary of the sync layer. Implementations talk to
// the feed service; wire shapes are their concern.
type API interface {
	FetchPage(ctx context.Context, filter Filter, page, pageSize int) (PageResult, error)
	FetchRecent(ctx context.Context, since time.Time) ([]Item, error)
	ToggleLike(ctx context.Context, itemID, userID string) (LikeResult, error)
	ToggleSave(ctx context.Context, itemID, userID string) (SaveResult, error)
	CreateItem(ctx context.Context, draft Draft) (Item, error)
	UpdateItem(ctx context.Context, itemID string, patch Patch) (Item, error)
	DeleteItem(ctx context.Context, itemID string) error
}

// EventKind discriminates broadcast events.
type EventKind string

const (
	EventCreated EventKind = "item_created"
	EventUpdated EventKind = "item_updated"
	EventDeleted EventKind = "item_deleted"
)

// Event is a push-style notification of a remote feed change.
type Event struct {
	Kind    EventKind `json:"kind"`
	ItemID  string    `json:"item_id"`
	ActorID string    `json:"actor_id,omitempty"`
	Item    *Item     `json:"item,omitempty"`
	Patch   *Patch    `json:"patch,omitempty"`
}

// Broadcaster delivers feed events for a scope until the returned
// unsubscribe function is called or ctx is canceled.
type Broadcaster interface {
	Subscribe(ctx context.Context, scope string, handler func(Event)) (func(), error)
}
