package config

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/anonto42/nano-blog/backend/pkg/logger"
)

// SetupMiddleware installs the process-wide echo middleware chain.
func SetupMiddleware(e *echo.Echo, log zerolog.Logger, maxUploadBytes int64) {
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(logger.EchoMiddleware(log))
	e.Use(middleware.Recover())
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))
	// room for the multipart envelope around the largest accepted image
	e.Use(middleware.BodyLimit(formatBytes(maxUploadBytes + 1<<20)))
}

func formatBytes(n int64) string {
	const mb = 1 << 20
	if n%mb == 0 {
		return strconv.FormatInt(n/mb, 10) + "M"
	}
	return strconv.FormatInt((n+1023)/1024, 10) + "K"
}
