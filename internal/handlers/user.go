package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/internal/pagination"
	"github.com/anonto42/postboard/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ProfileHandler serves author profile pages
type ProfileHandler struct {
	userRepository   repositories.UserRepository
	postRepository   repositories.PostRepository
	followRepository repositories.FollowRepository
	pageSize         int
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(userRepo repositories.UserRepository, postRepo repositories.PostRepository, followRepo repositories.FollowRepository, pageSize int) *ProfileHandler {
	return &ProfileHandler{
		userRepository:   userRepo,
		postRepository:   postRepo,
		followRepository: followRepo,
		pageSize:         pageSize,
	}
}

// ProfileContext is the profile page payload.
type ProfileContext struct {
	Author models.UserCompact           `json:"author"`
	Page   pagination.Page[models.Post] `json:"page"`
	AuthorStats
}

// RegisterProfileRoutes registers the profile route
func (h *ProfileHandler) RegisterProfileRoutes(e *echo.Echo) {
	e.GET("/:username", h.Profile)
}

// Profile lists one author's posts together with their follow counts.
func (h *ProfileHandler) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get author: %w", err)
	}

	authorID := author.ID
	page, err := loadPostPage(c, h.postRepository, repositories.PostFilter{AuthorID: &authorID}, h.pageSize)
	if err != nil {
		return err
	}
	stats, err := loadAuthorStats(ctx, h.postRepository, h.followRepository, currentUser(c), author)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ProfileContext{
		Author:      author.ToCompact(),
		Page:        page,
		AuthorStats: stats,
	})
}
