package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/postboard/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the paginated post listings
type FeedHandler struct {
	postRepository  repositories.PostRepository
	groupRepository repositories.GroupRepository
	pageSizes       PageSizes
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postRepo repositories.PostRepository, groupRepo repositories.GroupRepository, sizes PageSizes) *FeedHandler {
	return &FeedHandler{
		postRepository:  postRepo,
		groupRepository: groupRepo,
		pageSizes:       sizes,
	}
}

// RegisterFeedRoutes registers the listing routes
func (h *FeedHandler) RegisterFeedRoutes(e *echo.Echo, requireAuth echo.MiddlewareFunc) {
	e.GET("/", h.Index)
	e.GET("/group/:slug", h.GroupPosts)
	e.GET("/follow", h.FollowIndex, requireAuth)
}

// Index lists every post, newest first.
func (h *FeedHandler) Index(c echo.Context) error {
	page, err := loadPostPage(c, h.postRepository, repositories.PostFilter{}, h.pageSizes.Index)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"page": page})
}

// GroupPosts lists the posts filed under one group.
func (h *FeedHandler) GroupPosts(c echo.Context) error {
	group, err := h.groupRepository.GetGroupBySlug(c.Request().Context(), c.Param("slug"))
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get group: %w", err)
	}

	groupID := group.ID
	page, err := loadPostPage(c, h.postRepository, repositories.PostFilter{GroupID: &groupID}, h.pageSizes.Group)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"group": group, "page": page})
}

// FollowIndex lists posts by the authors the viewer follows.
func (h *FeedHandler) FollowIndex(c echo.Context) error {
	viewerID := currentUser(c).ID
	page, err := loadPostPage(c, h.postRepository, repositories.PostFilter{FollowerID: &viewerID}, h.pageSizes.Follow)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"page": page})
}
