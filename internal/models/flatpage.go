package models

// FlatPage is a static content page such as "about the author".
type FlatPage struct {
	ID      uint   `json:"-" bson:"-" gorm:"primaryKey"`
	URL     string `json:"url" bson:"url" gorm:"size:100;not null;uniqueIndex"`
	Title   string `json:"title" bson:"title" gorm:"size:200"`
	Content string `json:"content" bson:"content" gorm:"type:text"`
}

// TableName keeps flat pages in their own table.
func (FlatPage) TableName() string { return "flatpages" }
