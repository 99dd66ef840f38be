package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/anonto42/nano-blog/backend/internal/cache"
	"github.com/anonto42/nano-blog/backend/internal/handlers"
	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/render"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/pkg/config"
	"github.com/anonto42/nano-blog/backend/pkg/storage"
	"github.com/anonto42/nano-blog/backend/validators"
)

// Deps are the long-lived services the routes are built on.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Cache    cache.PageCache
	Storage  storage.Storage
	Limiter  *middleware.IPRateLimiter
	Firebase middleware.TokenVerifier // nil disables Firebase login
	Logger   zerolog.Logger
}

// New builds the echo instance: migrations, renderer, global middleware and
// every route.
func New(d Deps) (*echo.Echo, error) {
	if err := repositories.Migrate(d.DB); err != nil {
		return nil, err
	}
	d.Logger.Info().Msg("database migrations completed")

	renderer, err := render.New(storage.URLBuilder{Base: d.Config.Storage.PublicURL})
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	if d.Limiter == nil {
		d.Limiter = middleware.NewIPRateLimiter(d.Config.RateLimit.RPS, d.Config.RateLimit.Burst)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(e)

	config.SetupMiddleware(e, d.Logger, d.Config.Upload.MaxImageBytes)
	SetupRoutes(e, d)
	return e, nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, d Deps) {
	cfg := d.Config
	v := validators.NewValidator()
	e.Validator = v

	// --- Repositories ---
	userRepo := repositories.NewUserRepository(d.DB)
	groupRepo := repositories.NewGroupRepository(d.DB)
	postRepo := repositories.NewPostRepository(d.DB)
	commentRepo := repositories.NewCommentRepository(d.DB)
	followRepo := repositories.NewFollowRepository(d.DB)

	// --- Sessions ---
	sessions := middleware.NewSessions(middleware.SessionConfig{
		Secret:     cfg.Auth.JWTSecret,
		TTL:        cfg.Auth.TokenTTL,
		CookieName: cfg.Auth.CookieName,
		Secure:     cfg.Server.Env == "production",
	}, userRepo)
	e.Use(middleware.CSRF(cfg.Server.Env == "production"))
	e.Use(sessions.LoadSession())
	if d.Firebase != nil {
		e.Use(middleware.FirebaseAuthMiddleware(d.Firebase, userRepo))
	}

	loginRequired := middleware.LoginRequired(cfg.Auth.LoginURL)
	rateLimit := middleware.RateLimit(d.Limiter)
	cachePage := middleware.CachePage(d.Cache, cfg.Cache.Prefix, cfg.Cache.TTL)

	handlers.NewHealthHandler(d.DB, cfg.Log.ServiceName).RegisterHealthRoutes(e)

	if prefix := cfg.Storage.PublicURL; strings.HasPrefix(prefix, "/") {
		handlers.NewMediaHandler(d.Storage).RegisterMediaRoutes(e, strings.TrimRight(prefix, "/"))
	}

	handlers.NewAuthHandler(userRepo, sessions, d.Firebase, v).
		RegisterAuthRoutes(e.Group("/auth"), rateLimit)

	admin := e.Group("/admin", middleware.AdminToken(cfg.Admin.Token))
	handlers.NewAdminHandler(groupRepo, d.Cache).RegisterAdminRoutes(admin)

	handlers.NewFeedHandler(postRepo, groupRepo).
		RegisterFeedRoutes(e, cachePage, loginRequired)

	handlers.NewPostHandler(postRepo, groupRepo, commentRepo, followRepo, d.Storage, v, cfg.Upload.MaxImageBytes).
		RegisterPostRoutes(e, loginRequired, rateLimit)

	handlers.NewCommentHandler(commentRepo, postRepo, followRepo, v).
		RegisterCommentRoutes(e, loginRequired, rateLimit)

	handlers.NewFollowHandler(followRepo, userRepo).
		RegisterFollowRoutes(e, loginRequired)

	handlers.NewProfileHandler(userRepo, postRepo, followRepo).
		RegisterProfileRoutes(e)

	d.Logger.Info().Int("routes", len(e.Routes())).Msg("routes configured")
}

// NewStorage opens the configured image store.
func NewStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return storage.NewLocalStorage(cfg.Local)
	case "s3":
		return storage.NewS3Storage(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// NewPageCache opens the configured listing cache.
func NewPageCache(cfg *config.Config) (cache.PageCache, error) {
	switch cfg.Cache.Driver {
	case "", "memory":
		return cache.NewMemoryPageCache(cfg.Cache.Prefix, time.Minute), nil
	case "redis":
		return cache.NewRedisPageCache(cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Cache.Prefix)
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}
