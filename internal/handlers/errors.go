package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/pkg/logger"
)

// HTTPErrorHandler renders the site's 404 and 500 pages and falls back to
// echo's default handling for every other status.
func HTTPErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		switch {
		case code == http.StatusNotFound:
			renderError(c, code, "misc/404.html", echo.Map{"Path": c.Request().URL.Path})
		case code >= http.StatusInternalServerError:
			logger.Ctx(c.Request().Context()).Error().Err(err).Int(logger.FieldStatus, code).Msg("request failed")
			renderError(c, code, "misc/500.html", nil)
		default:
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
}

func renderError(c echo.Context, code int, page string, data echo.Map) {
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if err := renderPage(c, code, page, data); err != nil {
		logger.Ctx(c.Request().Context()).Error().Err(err).Str("template", page).Msg("failed to render error page")
		_ = c.String(code, http.StatusText(code))
	}
}
