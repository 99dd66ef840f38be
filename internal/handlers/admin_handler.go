package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/cache"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
)

// AdminHandler exposes operator endpoints behind the admin token
type AdminHandler struct {
	groupRepository repositories.GroupRepository
	pageCache       cache.PageCache
}

func NewAdminHandler(groupRepo repositories.GroupRepository, pc cache.PageCache) *AdminHandler {
	return &AdminHandler{groupRepository: groupRepo, pageCache: pc}
}

// RegisterAdminRoutes registers admin routes on a group already guarded by
// the admin token middleware
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.POST("/groups", h.CreateGroup)
	g.POST("/cache/clear", h.ClearCache)
}

// CreateGroup adds a group from a JSON body
func (h *AdminHandler) CreateGroup(c echo.Context) error {
	var req models.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := c.Validate(&req); err != nil {
		return err
	}

	group := &models.Group{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
	}
	if err := h.groupRepository.CreateGroup(c.Request().Context(), group); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "Group with this slug already exists")
		}
		return internalError(c, err, "Failed to create group")
	}

	logger.Ctx(c.Request().Context()).Info().Str("slug", group.Slug).Msg("group created")
	return c.JSON(http.StatusCreated, group)
}

// ClearCache drops every cached listing page
func (h *AdminHandler) ClearCache(c echo.Context) error {
	if err := h.pageCache.Clear(c.Request().Context()); err != nil {
		return internalError(c, err, "Failed to clear cache")
	}
	logger.Ctx(c.Request().Context()).Info().Msg("page cache cleared")
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}
