package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-blog/backend/internal/render"
	"github.com/anonto42/nano-blog/backend/pkg/storage"
)

func newErrorTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	r, err := render.New(storage.URLBuilder{Base: "/media"})
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = r
	e.HTTPErrorHandler = HTTPErrorHandler(e)
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })
	e.GET("/teapot", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "short and stout") })
	e.GET("/gone", func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "Post not found") })
	return e
}

func serve(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHTTPErrorHandlerPages(t *testing.T) {
	e := newErrorTestEcho(t)

	rec := serve(e, http.MethodGet, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error 404")
	assert.Contains(t, rec.Body.String(), "/no/such/page")

	rec = serve(e, http.MethodGet, "/gone")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error 404")

	rec = serve(e, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error 500")
	assert.NotContains(t, rec.Body.String(), "boom", "internal details stay in the log")

	rec = serve(e, http.MethodGet, "/teapot")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, rec.Body.String(), "short and stout")

	rec = serve(e, http.MethodHead, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}
