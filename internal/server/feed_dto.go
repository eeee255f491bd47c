package server

import (
	"context"
	"strconv"

	"github.com/fullmoon-jpg/paceon-sub000/internal/cache"
	"github.com/fullmoon-jpg/paceon-sub000/internal/feedsync"
	"github.com/fullmoon-jpg/paceon-sub000/internal/models"
)

// toItem converts a stored post into the wire shape feed clients consume.
func (s *Server) toItem(ctx context.Context, post *models.Post) feedsync.Item {
	return feedsync.Item{
		ID:           formatID(post.ID),
		AuthorID:     formatID(post.UserID),
		AuthorName:   s.authorName(ctx, post),
		Body:         post.Body,
		MediaURLs:    []string(post.MediaURLs),
		LikeCount:    post.LikeCount,
		CommentCount: post.CommentCount,
		ShareCount:   post.ShareCount,
		Location:     post.Location,
		Category:     post.Category,
		Liked:        post.Liked,
		Saved:        post.Saved,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
	}
}

func (s *Server) toItems(ctx context.Context, posts []*models.Post) []feedsync.Item {
	items := make([]feedsync.Item, 0, len(posts))
	for _, p := range posts {
		items = append(items, s.toItem(ctx, p))
	}
	return items
}

// authorName resolves the display name for a post's author, preferring the
// preloaded association and falling back to the profile cache.
func (s *Server) authorName(ctx context.Context, post *models.Post) string {
	if post.User.ID != 0 {
		return displayName(&post.User)
	}

	if profile, ok := s.profileCache.Get(post.UserID); ok {
		return profile.Name
	}

	user, err := s.userService.GetUserByID(ctx, post.UserID)
	if err != nil {
		return ""
	}
	name := displayName(user)
	s.profileCache.Set(cache.Profile{
		UserID:    user.ID,
		Name:      name,
		AvatarURL: user.AvatarURL,
		Role:      user.Role,
	})
	return name
}

func displayName(user *models.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Username
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
