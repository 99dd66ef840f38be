package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
)

// ContextUserKey is where the authenticated *models.User lives in echo.Context.
const ContextUserKey = "user"

var ErrInvalidToken = errors.New("invalid token")

// UserLookup is the slice of the user repository sessions need.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// Sessions issues and verifies HS256 session tokens carried in a cookie or an
// Authorization: Bearer header.
type Sessions struct {
	cfg   SessionConfig
	users UserLookup
}

func NewSessions(cfg SessionConfig, users UserLookup) *Sessions {
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 72 * time.Hour
	}
	return &Sessions{cfg: cfg, users: users}
}

// Issue signs a token for user.
func (s *Sessions) Issue(user *models.User) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}

// Parse verifies tokenString and returns its claims.
func (s *Sessions) Parse(tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Login issues a token and stores it in the session cookie.
func (s *Sessions) Login(c echo.Context, user *models.User) (string, error) {
	token, err := s.Issue(user)
	if err != nil {
		return "", err
	}
	c.SetCookie(&http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.cfg.TTL),
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// Logout expires the session cookie.
func (s *Sessions) Logout(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoadSession resolves the current user, if any, and stores it under
// ContextUserKey. Bad or stale tokens leave the request anonymous.
func (s *Sessions) LoadSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := s.tokenFrom(c)
			if tokenString == "" {
				return next(c)
			}

			claims, err := s.Parse(tokenString)
			if err != nil {
				logger.Ctx(c.Request().Context()).Debug().Err(err).Msg("ignoring session token")
				return next(c)
			}

			user, err := s.users.GetUserByID(c.Request().Context(), claims.UserID)
			if err != nil {
				logger.Ctx(c.Request().Context()).Debug().Err(err).Uint(logger.FieldUserID, claims.UserID).Msg("session user not found")
				return next(c)
			}

			c.Set(ContextUserKey, user)
			c.Set(logger.FieldUsername, user.Username)
			return next(c)
		}
	}
}

func (s *Sessions) tokenFrom(c echo.Context) string {
	if token := bearerToken(c); token != "" {
		return token
	}
	if cookie, err := c.Cookie(s.cfg.CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// bearerToken extracts "<token>" from "Authorization: Bearer <token>".
func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(ContextUserKey).(*models.User)
	return user
}
