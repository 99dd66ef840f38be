package middleware

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/cache"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
)

const HeaderCache = "X-Cache"

// CachePage serves GET responses from pc and stores fresh 200 responses for
// ttl. The key is prefix plus the request URI, so it does not vary by viewer.
func CachePage(pc cache.PageCache, prefix string, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}
			ctx := req.Context()
			key := cache.BuildKey(prefix, req.URL.RequestURI())

			entry, err := pc.Get(ctx, key)
			if err == nil {
				c.Response().Header().Set(HeaderCache, "HIT")
				return c.Blob(entry.Status, entry.ContentType, entry.Body)
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("page cache read failed")
			}

			res := c.Response()
			rec := &bodyRecorder{ResponseWriter: res.Writer, body: new(bytes.Buffer)}
			res.Writer = rec
			res.Header().Set(HeaderCache, "MISS")

			err = next(c)
			res.Writer = rec.ResponseWriter
			if err != nil {
				return err
			}

			if res.Status == http.StatusOK && rec.body.Len() > 0 {
				entry := &cache.Entry{
					Status:      res.Status,
					ContentType: res.Header().Get(echo.HeaderContentType),
					Body:        rec.body.Bytes(),
				}
				if err := pc.Set(ctx, key, entry, ttl); err != nil {
					logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("page cache write failed")
				}
			}
			return nil
		}
	}
}

type bodyRecorder struct {
	http.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *bodyRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(w.ResponseWriter).Hijack()
}

func (w *bodyRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
