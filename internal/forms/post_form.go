// Package forms reads and validates the multipart forms posted by the post
// and comment pages.
package forms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/internal/repositories"
	"github.com/anonto42/postboard/validators"
)

const (
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgClearConflict = "Please either submit a file or check the clear checkbox, not both."
)

// ErrMalformed is returned when the request body cannot be parsed as a form.
var ErrMalformed = errors.New("malformed form body")

// GroupFinder resolves the group choice of a post form.
type GroupFinder interface {
	GetGroupByID(ctx context.Context, id uint) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
}

// PostSubmission is the outcome of reading a post form. When Errors is
// non-empty nothing should be written.
type PostSubmission struct {
	Form       models.PostForm
	Group      *models.Group
	Image      *Upload
	ClearImage bool
	Errors     validators.FieldErrors
}

// Valid reports whether the submission passed validation.
func (s *PostSubmission) Valid() bool {
	return !s.Errors.Any()
}

// Apply copies the submitted fields onto post. storedImage is the media name
// of a freshly saved upload, or "" when none was sent.
func (s *PostSubmission) Apply(post *models.Post, storedImage string) {
	post.Text = s.Form.Text
	post.GroupID = nil
	post.Group = s.Group
	if s.Group != nil {
		id := s.Group.ID
		post.GroupID = &id
	}
	switch {
	case storedImage != "":
		post.Image = storedImage
	case s.ClearImage:
		post.Image = ""
	}
}

// PostFormParser validates new and edited posts.
type PostFormParser struct {
	validator *validators.CustomValidator
	groups    GroupFinder
	maxUpload int64
}

// NewPostFormParser creates a parser that rejects uploads above maxUpload bytes.
func NewPostFormParser(v *validators.CustomValidator, groups GroupFinder, maxUpload int64) *PostFormParser {
	return &PostFormParser{validator: v, groups: groups, maxUpload: maxUpload}
}

// Parse reads the post form from r. Field problems land in the submission's
// Errors; the returned error is for failures the submitter did not cause,
// or ErrMalformed for an unreadable body.
func (p *PostFormParser) Parse(ctx context.Context, r *http.Request) (*PostSubmission, error) {
	if err := parseBody(r, p.maxUpload); err != nil {
		return nil, err
	}

	sub := &PostSubmission{
		Form: models.PostForm{
			Text:  strings.TrimSpace(r.PostFormValue("text")),
			Group: strings.TrimSpace(r.PostFormValue("group")),
		},
		ClearImage: r.PostFormValue("image-clear") != "",
	}
	sub.Errors = validators.Messages(p.validator.Validate(sub.Form))
	if _, bad := sub.Errors["group"]; bad {
		sub.Errors["group"] = []string{msgInvalidChoice}
	} else if sub.Form.Group != "" {
		group, err := p.lookupGroup(ctx, sub.Form.Group)
		if err != nil {
			return nil, err
		}
		if group == nil {
			sub.Errors.Add("group", msgInvalidChoice)
		}
		sub.Group = group
	}

	upload, msg, err := readImage(r, "image", p.maxUpload)
	if err != nil {
		return nil, err
	}
	switch {
	case msg != "":
		sub.Errors.Add("image", msg)
	case upload != nil && sub.ClearImage:
		sub.Errors.Add("image", msgClearConflict)
	default:
		sub.Image = upload
	}
	return sub, nil
}

// Choices lists the groups a post can be filed under.
func (p *PostFormParser) Choices(ctx context.Context) ([]Choice, error) {
	groups, err := p.groups.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	choices := make([]Choice, 0, len(groups))
	for _, g := range groups {
		choices = append(choices, Choice{Value: strconv.FormatUint(uint64(g.ID), 10), Label: g.Title})
	}
	return choices, nil
}

func (p *PostFormParser) lookupGroup(ctx context.Context, raw string) (*models.Group, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, nil
	}
	group, err := p.groups.GetGroupByID(ctx, uint(id))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup group: %w", err)
	}
	return group, nil
}

// parseBody parses urlencoded and multipart bodies alike.
func parseBody(r *http.Request, maxUpload int64) error {
	err := r.ParseMultipartForm(maxUpload)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
