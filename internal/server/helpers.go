package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fullmoon-jpg/paceon-sub000/internal/models"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respond writes the standard success envelope.
func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// respondErr maps an application error onto an HTTP status and writes the
// error envelope.
func respondErr(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "VALIDATION_ERROR":
			status = fiber.StatusBadRequest
		case "UNAUTHORIZED":
			status = fiber.StatusForbidden
		case "NOT_FOUND":
			status = fiber.StatusNotFound
		case "RATE_LIMITED":
			status = fiber.StatusTooManyRequests
		}
	}
	return models.RespondWithError(c, status, err)
}

// requireFlag rejects the request when the named feature is not enabled for
// the authenticated user.
func (s *Server) requireFlag(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.flags.Enabled(name, currentUserID(c), true) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("Feature not enabled for this account"))
		}
		return c.Next()
	}
}

// currentUserID returns the authenticated user's id from fiber locals.
func currentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}

// parseID extracts a route parameter by name as a positive uint. On failure
// it writes a 400 response and returns errResponseWritten; callers should
// then return nil.
func (s *Server) parseID(c *fiber.Ctx, param, label string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+label))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// pageParams holds parsed page/page_size query parameters.
type pageParams struct {
	Page     int
	PageSize int
}

func (s *Server) parsePageParams(c *fiber.Ctx) pageParams {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	defaultSize := s.config.FeedPageSize
	if defaultSize <= 0 {
		defaultSize = 10
	}
	size := c.QueryInt("page_size", defaultSize)
	if size < 1 {
		size = defaultSize
	}
	if size > 100 {
		size = 100
	}

	return pageParams{Page: page, PageSize: size}
}
