package repositories

import (
	"github.com/anonto42/postboard/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the tables for every persisted model.
// Order matters: referenced tables come first so foreign keys can be created.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
		&models.FlatPage{},
	)
}
