package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
)

// view adds the per-request values every page layout reads.
func view(c echo.Context, data echo.Map) echo.Map {
	if data == nil {
		data = echo.Map{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		data["User"] = user
	}
	if token := middleware.CSRFToken(c); token != "" {
		data["CSRF"] = token
	}
	return data
}

func renderPage(c echo.Context, status int, name string, data echo.Map) error {
	return c.Render(status, name, view(c, data))
}

// internalError logs err against the request and turns it into a 500.
func internalError(c echo.Context, err error, msg string) error {
	logger.Ctx(c.Request().Context()).Error().Err(err).Msg(msg)
	return echo.NewHTTPError(http.StatusInternalServerError, msg).SetInternal(err)
}

// notFoundOr maps repository misses to 404 and everything else to 500.
func notFoundOr(c echo.Context, err error, msg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, msg)
	}
	return internalError(c, err, msg)
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func postURL(username string, postID uint) string {
	return "/" + username + "/" + strconv.FormatUint(uint64(postID), 10)
}

func profileURL(username string) string {
	return "/" + username
}
