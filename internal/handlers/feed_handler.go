package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/pagination"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

// FeedHandler serves the paginated post listings
type FeedHandler struct {
	postRepository  repositories.PostRepository
	groupRepository repositories.GroupRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postRepo repositories.PostRepository, groupRepo repositories.GroupRepository) *FeedHandler {
	return &FeedHandler{
		postRepository:  postRepo,
		groupRepository: groupRepo,
	}
}

// RegisterFeedRoutes registers the listing routes. cachePage wraps the index
// only; loginRequired guards the follow feed.
func (h *FeedHandler) RegisterFeedRoutes(e *echo.Echo, cachePage, loginRequired echo.MiddlewareFunc) {
	e.GET("/", h.Index, cachePage)
	e.GET("/group/:slug", h.GroupPosts)
	e.GET("/follow", h.FollowIndex, loginRequired)
	e.POST("/follow", h.FollowIndex, loginRequired)
}

// Index lists every post. The response is shared by all viewers through the
// page cache, so it is rendered without the current user.
func (h *FeedHandler) Index(c echo.Context) error {
	page, err := h.postRepository.ListPosts(c.Request().Context(), repositories.PostFilter{}, c.QueryParam("page"), pagination.PerPage)
	if err != nil {
		return internalError(c, err, "Failed to load posts")
	}
	return c.Render(http.StatusOK, "posts/index.html", echo.Map{
		"Page":      page,
		"Cacheable": true,
	})
}

// GroupPosts lists the posts of one group
func (h *FeedHandler) GroupPosts(c echo.Context) error {
	ctx := c.Request().Context()
	group, err := h.groupRepository.GetGroupBySlug(ctx, c.Param("slug"))
	if err != nil {
		return notFoundOr(c, err, "Group not found")
	}

	page, err := h.postRepository.ListPosts(ctx, repositories.PostFilter{GroupID: group.ID}, c.QueryParam("page"), pagination.PerPage)
	if err != nil {
		return internalError(c, err, "Failed to load group posts")
	}
	return renderPage(c, http.StatusOK, "posts/group.html", echo.Map{
		"Group": group,
		"Page":  page,
	})
}

// FollowIndex lists posts by the authors the current user follows
func (h *FeedHandler) FollowIndex(c echo.Context) error {
	user := middleware.CurrentUser(c)
	page, err := h.postRepository.ListPosts(c.Request().Context(), repositories.PostFilter{FollowerID: user.ID}, c.QueryParam("page"), pagination.PerPage)
	if err != nil {
		return internalError(c, err, "Failed to load feed")
	}
	return renderPage(c, http.StatusOK, "posts/follow.html", echo.Map{"Page": page})
}
