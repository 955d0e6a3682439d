package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/anonto42/postboard/internal/middleware"
	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/internal/pagination"
	"github.com/anonto42/postboard/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PageSizes sets how many posts each feed shows per page.
type PageSizes struct {
	Index  int
	Group  int
	Follow int
}

// AuthorStats is the author card shown on profile and post pages.
type AuthorStats struct {
	PostsCount int64 `json:"posts_count"`
	Following  bool  `json:"following"`
	Follower   int64 `json:"follower"`
	Follows    int64 `json:"follows"`
}

func currentUser(c echo.Context) *models.User {
	return middleware.CurrentUser(c)
}

// loadPostPage counts the filtered posts and fetches the page named by the
// "page" query parameter.
func loadPostPage(c echo.Context, posts repositories.PostRepository, filter repositories.PostFilter, perPage int) (pagination.Page[models.Post], error) {
	ctx := c.Request().Context()
	count, err := posts.CountPosts(ctx, filter)
	if err != nil {
		return pagination.Page[models.Post]{}, fmt.Errorf("count posts: %w", err)
	}
	p := pagination.Paginator{PerPage: perPage, Count: count}
	w := p.GetPage(c.QueryParam("page"))
	items, err := posts.ListPosts(ctx, filter, w.Offset, w.Limit)
	if err != nil {
		return pagination.Page[models.Post]{}, fmt.Errorf("list posts: %w", err)
	}
	return pagination.NewPage(p, w, items), nil
}

func loadAuthorStats(ctx context.Context, posts repositories.PostRepository, follows repositories.FollowRepository, viewer, author *models.User) (AuthorStats, error) {
	var stats AuthorStats
	var err error
	authorID := author.ID
	if stats.PostsCount, err = posts.CountPosts(ctx, repositories.PostFilter{AuthorID: &authorID}); err != nil {
		return stats, fmt.Errorf("count author posts: %w", err)
	}
	if stats.Follower, err = follows.GetFollowersCount(ctx, author.ID); err != nil {
		return stats, fmt.Errorf("count followers: %w", err)
	}
	if stats.Follows, err = follows.GetFollowingCount(ctx, author.ID); err != nil {
		return stats, fmt.Errorf("count following: %w", err)
	}
	if viewer != nil {
		if stats.Following, err = follows.IsFollowing(ctx, viewer.ID, author.ID); err != nil {
			return stats, fmt.Errorf("check following: %w", err)
		}
	}
	return stats, nil
}

// parseID reads a numeric path parameter. Anything else is a missing page.
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.ErrNotFound
	}
	return uint(id), nil
}

func profileURL(username string) string {
	return "/" + url.PathEscape(username)
}

func postURL(username string, id uint) string {
	return fmt.Sprintf("/%s/%d", url.PathEscape(username), id)
}
