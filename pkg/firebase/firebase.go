package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/anonto42/nano-blog/backend/pkg/logger"
)

// ErrDisabled is returned when no service account is configured.
var ErrDisabled = errors.New("firebase sign-in not configured")

// Config locates the service account used to verify ID tokens.
type Config struct {
	CredentialsPath string `mapstructure:"credentials_path"`
	ProjectID       string `mapstructure:"project_id"` // read from the credentials when empty
}

// NewAuthClient returns the client that verifies ID tokens for
// /auth/firebase-login and Bearer requests.
func NewAuthClient(ctx context.Context, cfg Config) (*auth.Client, error) {
	if cfg.CredentialsPath == "" {
		return nil, ErrDisabled
	}
	if _, err := os.Stat(cfg.CredentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials: %w", err)
	}

	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	logger.L().Info().Str("project_id", cfg.ProjectID).Msg("firebase sign-in enabled")
	return client, nil
}
