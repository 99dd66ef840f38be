package middleware

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
)

// TokenVerifier checks Firebase ID tokens; *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseUserLookup resolves the local account linked to a Firebase UID.
type FirebaseUserLookup interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// FirebaseAuthMiddleware accepts a Firebase ID token as a Bearer credential
// when no session was found. Only accounts already linked through
// /auth/firebase-login are recognised.
func FirebaseAuthMiddleware(verifier TokenVerifier, users FirebaseUserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) != nil {
				return next(c)
			}
			idToken := bearerToken(c)
			if idToken == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				logger.Ctx(ctx).Debug().Err(err).Msg("firebase token rejected")
				return next(c)
			}

			user, err := users.GetUserByFirebaseUID(ctx, token.UID)
			if err != nil {
				return next(c)
			}

			c.Set(ContextUserKey, user)
			c.Set(logger.FieldUsername, user.Username)
			return next(c)
		}
	}
}
