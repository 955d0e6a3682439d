package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/anonto42/postboard/internal/forms"
	"github.com/anonto42/postboard/internal/media"
	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/internal/repositories"
	"github.com/anonto42/postboard/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PostHandler serves post pages and the new/edit post forms
type PostHandler struct {
	postRepository    repositories.PostRepository
	commentRepository repositories.CommentRepository
	followRepository  repositories.FollowRepository
	postForm          *forms.PostFormParser
	storage           media.Storage
	logger            *zap.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	commentRepo repositories.CommentRepository,
	followRepo repositories.FollowRepository,
	postForm *forms.PostFormParser,
	storage media.Storage,
	logger *zap.Logger,
) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		commentRepository: commentRepo,
		followRepository:  followRepo,
		postForm:          postForm,
		storage:           storage,
		logger:            logger,
	}
}

// PostDetailContext is the post page payload.
type PostDetailContext struct {
	Title    string             `json:"title"`
	Post     *models.Post       `json:"post"`
	Author   models.UserCompact `json:"author"`
	Comments []models.Comment   `json:"comments"`
	Form     models.CommentForm `json:"form"`
	AuthorStats
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(e *echo.Echo, requireAuth echo.MiddlewareFunc) {
	e.GET("/new", h.NewPostForm, requireAuth)
	e.POST("/new", h.CreatePost, requireAuth)
	e.GET("/:username/:post_id", h.GetPost)
	e.GET("/:username/:post_id/edit", h.EditPostForm, requireAuth)
	e.POST("/:username/:post_id/edit", h.UpdatePost, requireAuth)
}

// GetPost shows one post with its comments.
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.lookupPost(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	comments, err := h.commentRepository.GetCommentsByPostID(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("list comments: %w", err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	stats, err := loadAuthorStats(ctx, h.postRepository, h.followRepository, currentUser(c), &post.Author)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PostDetailContext{
		Title:       post.Excerpt(),
		Post:        post,
		Author:      post.Author.ToCompact(),
		Comments:    comments,
		AuthorStats: stats,
	})
}

// NewPostForm returns an empty post form.
func (h *PostHandler) NewPostForm(c echo.Context) error {
	return h.renderForm(c, &forms.PostFormContext{Errors: validators.FieldErrors{}})
}

// CreatePost stores a new post written by the viewer.
func (h *PostHandler) CreatePost(c echo.Context) error {
	sub, err := h.parseForm(c)
	if err != nil {
		return err
	}
	if !sub.Valid() {
		return h.renderForm(c, &forms.PostFormContext{Form: sub.Form, Errors: sub.Errors})
	}

	post := &models.Post{AuthorID: currentUser(c).ID}
	if err := h.save(c, sub, post, h.postRepository.CreatePost); err != nil {
		return err
	}
	h.logger.Info("post created", zap.Uint("post_id", post.ID), zap.Uint("author_id", post.AuthorID))
	return c.Redirect(http.StatusFound, "/")
}

// EditPostForm returns the form pre-filled with the post. Only the author may
// edit; anyone else is sent back to the post page.
func (h *PostHandler) EditPostForm(c echo.Context) error {
	post, err := h.lookupPost(c)
	if err != nil {
		return err
	}
	if post.AuthorID != currentUser(c).ID {
		return c.Redirect(http.StatusFound, postURL(post.Author.Username, post.ID))
	}

	form := models.PostForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return h.renderForm(c, &forms.PostFormContext{
		IsEdit: true,
		Post:   post,
		Form:   form,
		Image:  post.Image,
		Errors: validators.FieldErrors{},
	})
}

// UpdatePost applies an edit by the author. Text, group and image change;
// author and publication date stay as they were.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	post, err := h.lookupPost(c)
	if err != nil {
		return err
	}
	detail := postURL(post.Author.Username, post.ID)
	if post.AuthorID != currentUser(c).ID {
		return c.Redirect(http.StatusFound, detail)
	}

	sub, err := h.parseForm(c)
	if err != nil {
		return err
	}
	if !sub.Valid() {
		return h.renderForm(c, &forms.PostFormContext{
			IsEdit: true,
			Post:   post,
			Form:   sub.Form,
			Image:  post.Image,
			Errors: sub.Errors,
		})
	}

	if err := h.save(c, sub, post, h.postRepository.UpdatePost); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, detail)
}

// lookupPost resolves the :username/:post_id pair or fails with 404.
func (h *PostHandler) lookupPost(c echo.Context) (*models.Post, error) {
	id, err := parseID(c, "post_id")
	if err != nil {
		return nil, err
	}
	post, err := h.postRepository.GetPostByAuthor(c.Request().Context(), c.Param("username"), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, echo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func (h *PostHandler) parseForm(c echo.Context) (*forms.PostSubmission, error) {
	sub, err := h.postForm.Parse(c.Request().Context(), c.Request())
	if errors.Is(err, forms.ErrMalformed) {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid form data")
	}
	return sub, err
}

// save stores the uploaded image, if any, and then writes the post. The image
// is removed again when the write fails.
func (h *PostHandler) save(c echo.Context, sub *forms.PostSubmission, post *models.Post, write func(context.Context, *models.Post) error) error {
	ctx := c.Request().Context()
	var stored string
	if sub.Image != nil {
		name, err := h.storage.Save(ctx, sub.Image.Data, sub.Image.Ext)
		if err != nil {
			return fmt.Errorf("store image: %w", err)
		}
		stored = name
	}

	sub.Apply(post, stored)
	if err := write(ctx, post); err != nil {
		if stored != "" {
			if derr := h.storage.Delete(ctx, stored); derr != nil {
				h.logger.Warn("failed to remove orphaned image", zap.String("image", stored), zap.Error(derr))
			}
		}
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

func (h *PostHandler) renderForm(c echo.Context, form *forms.PostFormContext) error {
	choices, err := h.postForm.Choices(c.Request().Context())
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}
	form.Groups = choices
	return c.JSON(http.StatusOK, form)
}
