package models

import "time"

// Post is a text entry written by a user, optionally filed under a group and
// illustrated with an image.
type Post struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`
	AuthorID uint      `json:"author_id" gorm:"not null;index"`
	Author   User      `json:"author" gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	GroupID  *uint     `json:"group_id,omitempty" gorm:"index"`
	Group    *Group    `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Image    string    `json:"image,omitempty" gorm:"size:255"`
}

// PostOrder is the default listing order: newest first.
const PostOrder = "pub_date DESC, id DESC"

// Excerpt returns the first 15 characters of the post text.
func (p *Post) Excerpt() string {
	r := []rune(p.Text)
	if len(r) > 15 {
		return string(r[:15])
	}
	return p.Text
}

// PostForm holds the text fields of the new/edit post form.
type PostForm struct {
	Text  string `form:"text" json:"text" validate:"required"`
	Group string `form:"group" json:"group" validate:"omitempty,numeric"`
}
