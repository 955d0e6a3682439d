package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/postboard/internal/forms"
	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/internal/repositories"
	"github.com/anonto42/postboard/validators"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	validator         *validators.CustomValidator
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, v *validators.CustomValidator) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		validator:         v,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(e *echo.Echo, requireAuth echo.MiddlewareFunc) {
	e.POST("/:username/:post_id/comment", h.CreateComment, requireAuth)
}

// CreateComment adds the viewer's comment to a post and returns to the post
// page. An empty comment is dropped silently.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	id, err := parseID(c, "post_id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByAuthor(ctx, c.Param("username"), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}

	form, fieldErrors, err := forms.ParseComment(h.validator, c.Request())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form data")
	}
	if !fieldErrors.Any() {
		comment := &models.Comment{
			PostID:   post.ID,
			AuthorID: currentUser(c).ID,
			Text:     form.Text,
		}
		if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
	}
	return c.Redirect(http.StatusFound, postURL(post.Author.Username, post.ID))
}
