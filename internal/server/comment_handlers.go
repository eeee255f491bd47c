package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fullmoon-jpg/paceon-sub000/internal/feedsync"
	"github.com/fullmoon-jpg/paceon-sub000/internal/models"
	"github.com/fullmoon-jpg/paceon-sub000/internal/service"
)

// GetComments handles GET /api/posts/:id/comments?limit=N&offset=N.
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.Context(),
		postID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, comments)
}

// CreateComment handles POST /api/posts/:id/comments.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	comment, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		UserID: userID,
		PostID: postID,
		Body:   req.Body,
	})
	if err != nil {
		return respondErr(c, err)
	}

	s.publishCommentCountChanged(c, postID, userID)
	return respond(c, fiber.StatusCreated, comment)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId", "comment ID")
	if err != nil {
		return nil
	}

	comment, err := s.commentRepo.GetByID(c.Context(), commentID)
	if err != nil {
		return respondErr(c, err)
	}
	if comment.PostID != postID {
		return respondErr(c, models.NewValidationError("Comment does not belong to this post"))
	}

	userID := currentUserID(c)
	if _, err := s.commentService.DeleteComment(c.Context(), service.DeleteCommentInput{
		UserID:    userID,
		CommentID: commentID,
	}); err != nil {
		return respondErr(c, err)
	}

	s.publishCommentCountChanged(c, postID, userID)
	return respond(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// publishCommentCountChanged broadcasts the post's new comment count as an
// update patch. Best effort: a failed refetch just skips the broadcast.
func (s *Server) publishCommentCountChanged(c *fiber.Ctx, postID, actorID uint) {
	post, err := s.feedService.GetPost(c.Context(), postID, actorID)
	if err != nil {
		return
	}
	count := post.CommentCount
	s.publishEvent(feedsync.Event{
		Kind:    feedsync.EventUpdated,
		ItemID:  formatID(postID),
		ActorID: formatID(actorID),
		Patch:   &feedsync.Patch{CommentCount: &count},
	})
}
