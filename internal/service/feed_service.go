// Package service contains the business rules sitting between handlers and
// repositories.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/fullmoon-jpg/paceon-sub000/internal/models"
	"github.com/fullmoon-jpg/paceon-sub000/internal/observability"
	"github.com/fullmoon-jpg/paceon-sub000/internal/repository"
)

// Feed filter values accepted by ListFeed.
const (
	FilterAll   = "all"
	FilterYours = "yours"
)

// FeedService owns post creation, listing and the like/save toggles.
type FeedService struct {
	postRepo repository.PostRepository
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
}

// NewFeedService creates a FeedService. isAdmin resolves whether a user may
// moderate other users' posts.
func NewFeedService(
	postRepo repository.PostRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *FeedService {
	return &FeedService{postRepo: postRepo, isAdmin: isAdmin}
}

type CreatePostInput struct {
	UserID    uint
	Body      string
	MediaURLs []string
	Location  string
	Category  string
}

type ListFeedInput struct {
	Filter        string
	Page          int
	PageSize      int
	CurrentUserID uint
}

type UpdatePostInput struct {
	UserID    uint
	PostID    uint
	Body      *string
	MediaURLs *[]string
	Location  *string
	Category  *string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// FeedPage is one page of feed results.
type FeedPage struct {
	Posts   []*models.Post
	HasMore bool
}

const (
	maxBodyLen  = 10000
	maxMediaLen = 10
)

func validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return models.NewValidationError("Body is required")
	}
	if len(body) > maxBodyLen {
		return models.NewValidationError("Body too long (max 10000 characters)")
	}
	return nil
}

func (s *FeedService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validateBody(in.Body); err != nil {
		return nil, err
	}
	if len(in.MediaURLs) > maxMediaLen {
		return nil, models.NewValidationError("Too many media attachments (max 10)")
	}

	post := &models.Post{
		Body:      in.Body,
		MediaURLs: models.MediaList(in.MediaURLs),
		Location:  in.Location,
		Category:  in.Category,
		UserID:    in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	// Re-read for the computed fields and preloaded author.
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// ListFeed returns one page of the activity feed. The "yours" filter narrows
// the listing to the requesting user's own posts.
func (s *FeedService) ListFeed(ctx context.Context, in ListFeedInput) (*FeedPage, error) {
	filter := in.Filter
	if filter == "" {
		filter = FilterAll
	}

	opts := repository.ListOptions{
		Limit:  in.PageSize,
		Offset: (in.Page - 1) * in.PageSize,
	}
	switch filter {
	case FilterAll:
	case FilterYours:
		if in.CurrentUserID == 0 {
			return nil, models.NewUnauthorizedError("Authentication required for the yours filter")
		}
		opts.AuthorID = in.CurrentUserID
	default:
		return nil, models.NewValidationError("Invalid filter (must be all or yours)")
	}

	if in.Page < 1 {
		return nil, models.NewValidationError("Page must be at least 1")
	}
	if in.PageSize < 1 || in.PageSize > 100 {
		return nil, models.NewValidationError("Page size must be between 1 and 100")
	}

	posts, hasMore, err := s.postRepo.List(ctx, opts, in.CurrentUserID)
	if err != nil {
		return nil, err
	}

	observability.FeedPagesServed.WithLabelValues(filter).Inc()
	return &FeedPage{Posts: posts, HasMore: hasMore}, nil
}

// ListSince returns posts created strictly after the given time, for the
// polling endpoint.
func (s *FeedService) ListSince(ctx context.Context, since time.Time, currentUserID uint) ([]*models.Post, error) {
	return s.postRepo.ListSince(ctx, since, currentUserID)
}

func (s *FeedService) GetPost(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id, currentUserID)
}

func (s *FeedService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, in.UserID, post.UserID); err != nil {
		return nil, err
	}

	if in.Body != nil {
		if err := validateBody(*in.Body); err != nil {
			return nil, err
		}
		post.Body = *in.Body
	}
	if in.MediaURLs != nil {
		if len(*in.MediaURLs) > maxMediaLen {
			return nil, models.NewValidationError("Too many media attachments (max 10)")
		}
		post.MediaURLs = models.MediaList(*in.MediaURLs)
	}
	if in.Location != nil {
		post.Location = *in.Location
	}
	if in.Category != nil {
		post.Category = *in.Category
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, in.PostID, in.UserID)
}

func (s *FeedService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, in.UserID, post.UserID); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, in.PostID)
}

// ToggleLike flips the caller's like on the post and returns the new state
// with the authoritative count.
func (s *FeedService) ToggleLike(ctx context.Context, userID, postID uint) (liked bool, count int, err error) {
	liked, count, err = s.postRepo.ToggleLike(ctx, userID, postID)
	if err != nil {
		return false, 0, err
	}
	observability.ReactionToggles.WithLabelValues("like", direction(liked)).Inc()
	return liked, count, nil
}

// ToggleSave flips the caller's save on the post.
func (s *FeedService) ToggleSave(ctx context.Context, userID, postID uint) (bool, error) {
	saved, err := s.postRepo.ToggleSave(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	observability.ReactionToggles.WithLabelValues("save", direction(saved)).Inc()
	return saved, nil
}

func direction(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// authorize permits the author or an admin.
func (s *FeedService) authorize(ctx context.Context, actorID, ownerID uint) error {
	if actorID == ownerID {
		return nil
	}
	if s.isAdmin != nil {
		admin, err := s.isAdmin(ctx, actorID)
		if err != nil {
			return err
		}
		if admin {
			return nil
		}
	}
	return models.NewUnauthorizedError("You can only modify your own posts")
}
