package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/pagination"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

// ProfileHandler renders author profiles
type ProfileHandler struct {
	userRepository   repositories.UserRepository
	postRepository   repositories.PostRepository
	followRepository repositories.FollowRepository
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(userRepo repositories.UserRepository, postRepo repositories.PostRepository, followRepo repositories.FollowRepository) *ProfileHandler {
	return &ProfileHandler{
		userRepository:   userRepo,
		postRepository:   postRepo,
		followRepository: followRepo,
	}
}

// RegisterProfileRoutes registers profile routes. The catch-all username
// route must stay below every static top-level path, which echo guarantees.
func (h *ProfileHandler) RegisterProfileRoutes(e *echo.Echo) {
	e.GET("/:username", h.Profile)
}

// Profile lists an author's posts along with follow state and counters
func (h *ProfileHandler) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return notFoundOr(c, err, "User not found")
	}

	page, err := h.postRepository.ListPosts(ctx, repositories.PostFilter{AuthorID: author.ID}, c.QueryParam("page"), pagination.PerPage)
	if err != nil {
		return internalError(c, err, "Failed to load posts")
	}

	followers, err := h.followRepository.GetFollowersCount(ctx, author.ID)
	if err != nil {
		return internalError(c, err, "Failed to count followers")
	}
	following, err := h.followRepository.GetFollowingCount(ctx, author.ID)
	if err != nil {
		return internalError(c, err, "Failed to count following")
	}

	isFollowing := false
	user := middleware.CurrentUser(c)
	if user != nil {
		isFollowing, err = h.followRepository.IsFollowing(ctx, user.ID, author.ID)
		if err != nil {
			return internalError(c, err, "Failed to load follow state")
		}
	}

	return renderPage(c, http.StatusOK, "posts/profile.html", echo.Map{
		"Author":         author,
		"Page":           page,
		"Following":      isFollowing,
		"CanFollow":      user != nil && user.ID != author.ID,
		"FollowersCount": followers,
		"FollowingCount": following,
	})
}
