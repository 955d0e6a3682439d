package models

// Group is a slug-addressed category that posts may optionally belong to.
type Group struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" form:"title" gorm:"size:200;not null" validate:"required,max=200"`
	Description string `json:"description" form:"description" gorm:"type:text"`
	Slug        string `json:"slug" form:"slug" gorm:"size:20;not null;uniqueIndex" validate:"required,max=20,slug"`
}
