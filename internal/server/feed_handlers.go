package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fullmoon-jpg/paceon-sub000/internal/feedsync"
	"github.com/fullmoon-jpg/paceon-sub000/internal/models"
	"github.com/fullmoon-jpg/paceon-sub000/internal/service"
)

// GetFeed handles GET /api/feed?filter=all|yours&page=N&page_size=N.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	params := s.parsePageParams(c)

	page, err := s.feedService.ListFeed(c.Context(), service.ListFeedInput{
		Filter:        c.Query("filter", service.FilterAll),
		Page:          params.Page,
		PageSize:      params.PageSize,
		CurrentUserID: currentUserID(c),
	})
	if err != nil {
		return respondErr(c, err)
	}

	return respond(c, fiber.StatusOK, feedsync.PageResult{
		Items:   s.toItems(c.Context(), page.Posts),
		HasMore: page.HasMore,
	})
}

// GetRecentFeed handles GET /api/feed/recent?since=RFC3339. It backs the
// client poller's "anything new since T" question.
func (s *Server) GetRecentFeed(c *fiber.Ctx) error {
	sinceRaw := c.Query("since")
	if sinceRaw == "" {
		return respondErr(c, models.NewValidationError("since query parameter is required"))
	}
	since, err := time.Parse(time.RFC3339Nano, sinceRaw)
	if err != nil {
		return respondErr(c, models.NewValidationError("since must be an RFC3339 timestamp"))
	}

	posts, err := s.feedService.ListSince(c.Context(), since, currentUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, s.toItems(c.Context(), posts))
}

// CreatePost handles POST /api/posts.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var draft feedsync.Draft
	if err := c.BodyParser(&draft); err != nil {
		return respondErr(c, models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	post, err := s.feedService.CreatePost(c.Context(), service.CreatePostInput{
		UserID:    userID,
		Body:      draft.Body,
		MediaURLs: draft.MediaURLs,
		Location:  draft.Location,
		Category:  draft.Category,
	})
	if err != nil {
		return respondErr(c, err)
	}

	item := s.toItem(c.Context(), post)
	s.publishItemCreated(item)
	return respond(c, fiber.StatusCreated, item)
}

// GetPost handles GET /api/posts/:id.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	post, err := s.feedService.GetPost(c.Context(), id, currentUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, s.toItem(c.Context(), post))
}

// UpdatePost handles PATCH /api/posts/:id.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	var patch feedsync.Patch
	if err := c.BodyParser(&patch); err != nil {
		return respondErr(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.feedService.UpdatePost(c.Context(), service.UpdatePostInput{
		UserID:    currentUserID(c),
		PostID:    id,
		Body:      patch.Body,
		MediaURLs: patch.MediaURLs,
		Location:  patch.Location,
		Category:  patch.Category,
	})
	if err != nil {
		return respondErr(c, err)
	}

	item := s.toItem(c.Context(), post)
	s.publishItemUpdated(item, &patch)
	return respond(c, fiber.StatusOK, item)
}

// DeletePost handles DELETE /api/posts/:id.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	userID := currentUserID(c)
	if err := s.feedService.DeletePost(c.Context(), service.DeletePostInput{
		UserID: userID,
		PostID: id,
	}); err != nil {
		return respondErr(c, err)
	}

	s.publishItemDeleted(formatID(id), formatID(userID))
	return respond(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// ToggleLike handles POST /api/posts/:id/like.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	userID := currentUserID(c)
	liked, count, err := s.feedService.ToggleLike(c.Context(), userID, id)
	if err != nil {
		return respondErr(c, err)
	}

	s.publishReactionChanged(formatID(id), formatID(userID), count)
	return respond(c, fiber.StatusOK, feedsync.LikeResult{Liked: liked, LikeCount: count})
}

// ToggleSave handles POST /api/posts/:id/save.
func (s *Server) ToggleSave(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	saved, err := s.feedService.ToggleSave(c.Context(), currentUserID(c), id)
	if err != nil {
		return respondErr(c, err)
	}

	// Saves are private; no broadcast.
	return respond(c, fiber.StatusOK, feedsync.SaveResult{Saved: saved})
}
