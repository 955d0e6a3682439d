package forms

import (
	"net/http"
	"strings"

	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/validators"
)

// ParseComment reads the comment form from r.
func ParseComment(v *validators.CustomValidator, r *http.Request) (models.CommentForm, validators.FieldErrors, error) {
	if err := r.ParseForm(); err != nil {
		return models.CommentForm{}, nil, ErrMalformed
	}
	form := models.CommentForm{Text: strings.TrimSpace(r.PostFormValue("text"))}
	return form, validators.Messages(v.Validate(form)), nil
}
