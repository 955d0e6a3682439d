package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/anonto42/postboard/internal/middleware"
	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/internal/repositories"
	"github.com/anonto42/postboard/pkg/firebase"
	"github.com/anonto42/postboard/validators"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgUsernameTaken = "A user with that username already exists."
	msgBadLogin      = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	sessions       *middleware.Sessions
	firebase       firebase.Verifier
	logger         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. verifier may be nil, in which
// case Firebase login is not offered.
func NewAuthHandler(userRepo repositories.UserRepository, sessions *middleware.Sessions, verifier firebase.Verifier, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		sessions:       sessions,
		firebase:       verifier,
		logger:         logger,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.GET("/login", h.LoginForm)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	if h.firebase != nil {
		g.POST("/firebase", h.FirebaseLogin)
	}
}

// Signup creates a local account and signs it in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := validators.Messages(c.Validate(&req))
	ctx := c.Request().Context()
	if _, invalid := fieldErrors["username"]; !invalid {
		_, err := h.userRepository.GetUserByUsername(ctx, req.Username)
		switch {
		case err == nil:
			fieldErrors.Add("username", msgUsernameTaken)
		case !errors.Is(err, repositories.ErrNotFound):
			return fmt.Errorf("check username: %w", err)
		}
	}
	if fieldErrors.Any() {
		return c.JSON(http.StatusOK, echo.Map{
			"form":   echo.Map{"username": req.Username, "email": req.Email},
			"errors": fieldErrors,
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	h.logger.Info("user signed up", zap.Uint("user_id", user.ID), zap.String("username", user.Username))

	if _, err := h.sessions.Issue(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/")
}

// LoginForm returns the login form context, carrying the page to return to.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"form":   echo.Map{"username": "", "next": c.QueryParam("next")},
		"errors": validators.FieldErrors{},
	})
}

// Login checks a username and password, sets the session cookie and redirects
// to next when it is a local path.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Next == "" {
		req.Next = c.QueryParam("next")
	}

	fieldErrors := validators.Messages(c.Validate(&req))
	if !fieldErrors.Any() {
		user, err := h.userRepository.GetUserByUsername(c.Request().Context(), req.Username)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			fieldErrors.Add("__all__", msgBadLogin)
		case err != nil:
			return fmt.Errorf("get user: %w", err)
		case user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil:
			fieldErrors.Add("__all__", msgBadLogin)
		default:
			if _, err := h.sessions.Issue(c, user); err != nil {
				return err
			}
			return c.Redirect(http.StatusFound, safeNext(req.Next))
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"form":   echo.Map{"username": req.Username, "next": req.Next},
		"errors": fieldErrors,
	})
}

// FirebaseLogin exchanges a Firebase ID token for a local session, creating
// the account on first use.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validators.Messages(err))
	}

	ctx := c.Request().Context()
	identity, err := h.firebase.Verify(ctx, req.IDToken)
	if err != nil {
		h.logger.Debug("firebase token rejected", zap.Error(err))
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, identity.UID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		username, err := h.freeUsername(c, identity)
		if err != nil {
			return err
		}
		uid := identity.UID
		first, last := splitName(identity.Name)
		user = &models.User{
			Username:    username,
			Email:       identity.Email,
			FirstName:   first,
			LastName:    last,
			FirebaseUID: &uid,
		}
		if err := h.userRepository.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("create firebase user: %w", err)
		}
		h.logger.Info("firebase user created", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	case err != nil:
		return fmt.Errorf("get firebase user: %w", err)
	default:
		if identity.Email != "" && identity.Email != user.Email {
			user.Email = identity.Email
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return fmt.Errorf("update firebase user: %w", err)
			}
		}
	}

	token, err := h.sessions.Issue(c, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": user.ToCompact()})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.sessions.Clear(c)
	return c.Redirect(http.StatusFound, "/")
}

// freeUsername derives an unused username from the Firebase identity.
func (h *AuthHandler) freeUsername(c echo.Context, identity *firebase.Identity) (string, error) {
	base := usernameFrom(identity.Email)
	if base == "" {
		base = usernameFrom(identity.Name)
	}
	if base == "" {
		base = "user"
	}

	suffix := identity.UID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	candidates := []string{base, base + "-" + suffix, base + "-" + uuid.NewString()[:8]}
	for _, candidate := range candidates {
		if c.Validate(&models.SignupRequest{Username: candidate, Password: "placeholder"}) != nil {
			continue
		}
		_, err := h.userRepository.GetUserByUsername(c.Request().Context(), candidate)
		if errors.Is(err, repositories.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
	}
	return "", fmt.Errorf("no free username for firebase uid %s", identity.UID)
}

// usernameFrom keeps the characters of s that are valid in a username,
// reading only the local part of an email address.
func usernameFrom(s string) string {
	if at := strings.IndexByte(s, '@'); at >= 0 {
		s = s[:at]
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), strings.ContainsRune("_.+-", r):
			b.WriteRune(r)
		}
	}
	out := []rune(b.String())
	if len(out) > 120 {
		out = out[:120]
	}
	return string(out)
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// safeNext returns next when it is a path on this site, "/" otherwise.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
