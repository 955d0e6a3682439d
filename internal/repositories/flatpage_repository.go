package repositories

import (
	"context"

	"github.com/anonto42/postboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// FlatPageRepository looks up static pages by URL.
type FlatPageRepository interface {
	GetFlatPageByURL(ctx context.Context, url string) (*models.FlatPage, error)
}

// MongoFlatPageRepository implements FlatPageRepository for MongoDB
type MongoFlatPageRepository struct {
	collection *mongo.Collection
}

// NewMongoFlatPageRepository creates a new MongoFlatPageRepository
func NewMongoFlatPageRepository(db *mongo.Database) *MongoFlatPageRepository {
	return &MongoFlatPageRepository{collection: db.Collection("flatpages")}
}

func (r *MongoFlatPageRepository) GetFlatPageByURL(ctx context.Context, url string) (*models.FlatPage, error) {
	var page models.FlatPage
	if err := r.collection.FindOne(ctx, bson.M{"url": url}).Decode(&page); err != nil {
		return nil, translate(err)
	}
	return &page, nil
}

// SQLFlatPageRepository implements FlatPageRepository on top of gorm, used
// when no MongoDB is configured.
type SQLFlatPageRepository struct {
	db *gorm.DB
}

// NewSQLFlatPageRepository creates a new SQLFlatPageRepository
func NewSQLFlatPageRepository(db *gorm.DB) *SQLFlatPageRepository {
	return &SQLFlatPageRepository{db: db}
}

func (r *SQLFlatPageRepository) GetFlatPageByURL(ctx context.Context, url string) (*models.FlatPage, error) {
	var page models.FlatPage
	if err := r.db.WithContext(ctx).Where("url = ?", url).First(&page).Error; err != nil {
		return nil, translate(err)
	}
	return &page, nil
}
