package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
	}
}

// RegisterFollowRoutes registers follow-related routes. Both are POST only.
func (h *FollowHandler) RegisterFollowRoutes(e *echo.Echo, requireAuth echo.MiddlewareFunc) {
	e.POST("/:username/follow", h.FollowUser, requireAuth)
	e.POST("/:username/unfollow", h.UnfollowUser, requireAuth)
}

// FollowUser subscribes the viewer to an author. Following yourself or an
// author already followed changes nothing.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	author, err := h.lookupAuthor(c)
	if err != nil {
		return err
	}
	viewer := currentUser(c)
	if viewer.ID != author.ID {
		if err := h.followRepository.CreateFollow(c.Request().Context(), viewer.ID, author.ID); err != nil {
			return fmt.Errorf("create follow: %w", err)
		}
	}
	return c.Redirect(http.StatusFound, profileURL(author.Username))
}

// UnfollowUser removes the subscription if there is one.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	author, err := h.lookupAuthor(c)
	if err != nil {
		return err
	}
	if err := h.followRepository.DeleteFollow(c.Request().Context(), currentUser(c).ID, author.ID); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return c.Redirect(http.StatusFound, profileURL(author.Username))
}

func (h *FollowHandler) lookupAuthor(c echo.Context) (*models.User, error) {
	author, err := h.userRepository.GetUserByUsername(c.Request().Context(), c.Param("username"))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, echo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}
	return author, nil
}
