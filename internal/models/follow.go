package models

// Follow means User receives Author's posts in their follow feed.
// A (user, author) pair is stored at most once.
type Follow struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	UserID   uint `json:"user_id" gorm:"not null;index;uniqueIndex:idx_follow_user_author"`
	User     User `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AuthorID uint `json:"author_id" gorm:"not null;index;uniqueIndex:idx_follow_user_author"`
	Author   User `json:"-" gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// TableName keeps the table name used by the existing deployment.
func (Follow) TableName() string { return "follow" }
