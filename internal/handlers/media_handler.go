package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/pkg/storage"
)

// MediaHandler serves uploaded files out of the configured storage
type MediaHandler struct {
	store storage.Storage
}

func NewMediaHandler(store storage.Storage) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) RegisterMediaRoutes(e *echo.Echo, prefix string) {
	e.GET(prefix+"/*", h.Serve)
}

// Serve streams a stored file with a sniffed content type
func (h *MediaHandler) Serve(c echo.Context) error {
	key := c.Param("*")
	if key == "" {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}

	rc, err := h.store.Read(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return echo.NewHTTPError(http.StatusNotFound, "File not found")
		}
		return internalError(c, err, "Failed to read file")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return internalError(c, err, "Failed to read file")
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
	return c.Blob(http.StatusOK, mimetype.Detect(data).String(), data)
}
