package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(e *echo.Echo, loginRequired echo.MiddlewareFunc) {
	e.POST("/:username/follow", h.ProfileFollow, loginRequired)
	e.POST("/:username/unfollow", h.ProfileUnfollow, loginRequired)
}

// ProfileFollow starts following the author. Repeats and self-follows
// change nothing.
func (h *FollowHandler) ProfileFollow(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return notFoundOr(c, err, "User not found")
	}

	created, err := h.followRepository.Follow(ctx, user.ID, author.ID)
	if err != nil {
		return internalError(c, err, "Failed to follow user")
	}
	if created {
		logger.Ctx(ctx).Info().Str("author", author.Username).Msg("follow added")
	}
	return c.Redirect(http.StatusFound, profileURL(author.Username))
}

// ProfileUnfollow stops following the author if a relation exists
func (h *FollowHandler) ProfileUnfollow(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return notFoundOr(c, err, "User not found")
	}

	removed, err := h.followRepository.Unfollow(ctx, user.ID, author.ID)
	if err != nil {
		return internalError(c, err, "Failed to unfollow user")
	}
	if removed {
		logger.Ctx(ctx).Info().Str("author", author.Username).Msg("follow removed")
	}
	return c.Redirect(http.StatusFound, profileURL(author.Username))
}
