package logger

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const headerRequestID = echo.HeaderXRequestID

// EchoMiddleware attaches a request-scoped child logger (request id, method,
// path, client ip) to the request context and logs every completed request.
// Errors returned by handlers are committed through c.Error so the logged
// status is the one the client actually received.
func EchoMiddleware(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := req.Header.Get(headerRequestID)
			if reqID == "" {
				reqID = uuid.New().String()
			}

			child := base.With().
				Str(FieldRequestID, reqID).
				Str(FieldMethod, req.Method).
				Str(FieldPath, req.URL.Path).
				Str(FieldClientIP, c.RealIP()).
				Logger()

			c.Response().Header().Set(headerRequestID, reqID)
			c.SetRequest(req.WithContext(WithLogger(req.Context(), child)))

			if err := next(c); err != nil {
				c.Error(err)
			}

			evt := child.Info()
			if c.Response().Status >= 500 {
				evt = child.Error()
			}
			evt = evt.
				Int(FieldStatus, c.Response().Status).
				Float64(FieldLatency, float64(time.Since(start).Microseconds())/1000)

			if username, ok := c.Get(FieldUsername).(string); ok {
				evt = evt.Str(FieldUsername, username)
			}
			evt.Msg("request completed")

			return nil
		}
	}
}
