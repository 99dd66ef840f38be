package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
	"github.com/anonto42/nano-blog/backend/validators"
)

const (
	msgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	msgUsernameTaken  = "A user with that username already exists."
)

var usernameUnsafe = regexp.MustCompile(`[^\w.@+-]`)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	sessions       *middleware.Sessions
	firebaseAuth   middleware.TokenVerifier
	validator      *validators.CustomValidator
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, in which
// case Firebase login is not offered.
func NewAuthHandler(
	userRepo repositories.UserRepository,
	sessions *middleware.Sessions,
	firebaseAuth middleware.TokenVerifier,
	v *validators.CustomValidator,
) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		sessions:       sessions,
		firebaseAuth:   firebaseAuth,
		validator:      v,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, rateLimit echo.MiddlewareFunc) {
	g.GET("/signup", h.SignupForm)
	g.POST("/signup", h.Signup, rateLimit)
	g.GET("/login", h.LoginForm)
	g.POST("/login", h.Login, rateLimit)
	g.POST("/logout", h.Logout)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin, rateLimit)
	}
}

func (h *AuthHandler) SignupForm(c echo.Context) error {
	return renderPage(c, http.StatusOK, "auth/signup.html", echo.Map{"Form": models.SignupForm{}})
}

// Signup creates a local account with a bcrypt password and logs it in
func (h *AuthHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var form models.SignupForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission")
	}
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	errs := validators.Errors{}
	for field, msg := range h.validator.Check(&form) {
		errs.Add(field, msg)
	}
	if !errs.Has("username") && validators.IsReservedUsername(form.Username) {
		errs.Add("username", validators.MsgReservedName)
	}
	if len(errs) > 0 {
		return h.renderSignup(c, form, errs)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return internalError(c, err, "Failed to hash password")
	}

	user := &models.User{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Password:  string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			errs.Add("username", msgUsernameTaken)
			return h.renderSignup(c, form, errs)
		}
		return internalError(c, err, "Failed to create user")
	}

	if _, err := h.sessions.Login(c, user); err != nil {
		return internalError(c, err, "Failed to start session")
	}
	logger.Ctx(ctx).Info().Str(logger.FieldUsername, user.Username).Msg("user signed up")
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) renderSignup(c echo.Context, form models.SignupForm, errs validators.Errors) error {
	form.Password, form.Password2 = "", ""
	return renderPage(c, http.StatusOK, "auth/signup.html", echo.Map{"Form": form, "Errors": errs})
}

func (h *AuthHandler) LoginForm(c echo.Context) error {
	return renderPage(c, http.StatusOK, "auth/login.html", echo.Map{
		"Form": models.LoginForm{},
		"Next": c.QueryParam("next"),
	})
}

// Login checks credentials and redirects to next when it is a local path
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var form models.LoginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission")
	}
	next := c.FormValue("next")

	fail := func(errs validators.Errors) error {
		form.Password = ""
		return renderPage(c, http.StatusOK, "auth/login.html", echo.Map{"Form": form, "Next": next, "Errors": errs})
	}

	if errs := h.validator.Check(&form); errs != nil {
		return fail(errs)
	}

	user, err := h.userRepository.GetUserByUsername(ctx, form.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fail(validators.Errors{"__all__": msgBadCredentials})
		}
		return internalError(c, err, "Failed to load user")
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)) != nil {
		return fail(validators.Errors{"__all__": msgBadCredentials})
	}

	if _, err := h.sessions.Login(c, user); err != nil {
		return internalError(c, err, "Failed to start session")
	}
	logger.Ctx(ctx).Info().Str(logger.FieldUsername, user.Username).Msg("user logged in")
	return c.Redirect(http.StatusFound, middleware.SafeNext(next, "/"))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.sessions.Logout(c)
	return c.Redirect(http.StatusFound, "/")
}

// FirebaseLogin verifies a Firebase ID token, links or creates the local
// account and issues a session
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, token.UID)
	switch {
	case err == nil:
		if email != "" && user.Email != email {
			user.Email = email
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return internalError(c, err, "Failed to update user details")
			}
		}
	case errors.Is(err, repositories.ErrNotFound):
		user, err = h.createFirebaseUser(ctx, token.UID, email, name)
		if err != nil {
			return internalError(c, err, "Failed to create user")
		}
	default:
		return internalError(c, err, "Failed to load user")
	}

	sessionToken, err := h.sessions.Login(c, user)
	if err != nil {
		return internalError(c, err, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":    sessionToken,
		"username": user.Username,
	})
}

// createFirebaseUser picks a free username derived from the email address.
func (h *AuthHandler) createFirebaseUser(ctx context.Context, uid, email, name string) (*models.User, error) {
	base := usernameUnsafe.ReplaceAllString(strings.SplitN(email, "@", 2)[0], "")
	if base == "" || validators.IsReservedUsername(base) {
		base = "user"
	}
	if len(base) > 120 {
		base = base[:120]
	}

	first, last, _ := strings.Cut(name, " ")
	firebaseUID := uid
	for attempt := 0; attempt < 5; attempt++ {
		username := base
		if attempt > 0 {
			suffix := uid
			if len(suffix) > 6 {
				suffix = suffix[:6]
			}
			username = fmt.Sprintf("%s_%s%d", base, suffix, attempt)
		}

		user := &models.User{
			Username:    username,
			Email:       email,
			FirstName:   first,
			LastName:    last,
			FirebaseUID: &firebaseUID,
		}
		err := h.userRepository.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no free username for %q", base)
}
