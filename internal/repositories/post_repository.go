package repositories

import (
	"context"

	"github.com/anonto42/postboard/internal/models"
	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero value lists every post.
type PostFilter struct {
	AuthorID   *uint // posts written by this user
	GroupID    *uint // posts filed under this group
	FollowerID *uint // posts by authors this user follows
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, post *models.Post) error
	GetPostByAuthor(ctx context.Context, username string, id uint) (*models.Post, error)
	ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error)
	CountPosts(ctx context.Context, filter PostFilter) (int64, error)
}

// SQLPostRepository implements PostRepository on top of gorm
type SQLPostRepository struct {
	db *gorm.DB
}

// NewSQLPostRepository creates a new SQLPostRepository
func NewSQLPostRepository(db *gorm.DB) *SQLPostRepository {
	return &SQLPostRepository{db: db}
}

// CreatePost inserts a post; pub_date is assigned by the database layer.
func (r *SQLPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error
}

// UpdatePost writes the editable columns only, leaving author and pub_date as
// they were at creation.
func (r *SQLPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
}

// GetPostByAuthor finds the post with the given id written by username.
func (r *SQLPostRepository) GetPostByAuthor(ctx context.Context, username string, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Where("id = ? AND author_id IN (?)", id,
			r.db.Model(&models.User{}).Select("id").Where("username = ?", username),
		).
		First(&post).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// ListPosts returns one window of the filtered posts, newest first.
func (r *SQLPostRepository) ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.filtered(ctx, filter).
		Preload("Author").
		Preload("Group").
		Order(models.PostOrder).
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *SQLPostRepository) CountPosts(ctx context.Context, filter PostFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

func (r *SQLPostRepository) filtered(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.AuthorID != nil {
		q = q.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.GroupID != nil {
		q = q.Where("group_id = ?", *filter.GroupID)
	}
	if filter.FollowerID != nil {
		q = q.Where("author_id IN (?)",
			r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", *filter.FollowerID),
		)
	}
	return q
}
