package forms

import (
	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/validators"
)

// Choice is one option of a select field.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// PostFormContext is the page context of the new/edit post form.
type PostFormContext struct {
	IsEdit bool                   `json:"is_edit"`
	Post   *models.Post           `json:"post,omitempty"`
	Form   models.PostForm        `json:"form"`
	Image  string                 `json:"image,omitempty"`
	Groups []Choice               `json:"groups"`
	Errors validators.FieldErrors `json:"errors"`
}
