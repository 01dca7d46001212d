package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/isdelr/bookfeed-be/internal/apperr"
	"github.com/isdelr/bookfeed-be/internal/auth"
	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/isdelr/bookfeed-be/internal/store"
)

const dateOnly = "2006-01-02"

// BookInput is the request body for creating a book.
type BookInput struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required,entityid"`
	PublishedDate string `json:"publishedDate" validate:"required,bookdate"`
	Pages         *int   `json:"pages" validate:"required,gt=0"`
	Library       string `json:"library" validate:"required,entityid"`
}

// BookPatch is the request body for a partial book update. Nil fields are left unchanged.
type BookPatch struct {
	Title         *string `json:"title" validate:"omitnil,min=1"`
	Author        *string `json:"author" validate:"omitnil,entityid"`
	PublishedDate *string `json:"publishedDate" validate:"omitnil,bookdate"`
	Pages         *int    `json:"pages" validate:"omitnil,gt=0"`
	Library       *string `json:"library" validate:"omitnil,entityid"`
}

// Patch converts a full input into the equivalent patch.
func (in BookInput) Patch() BookPatch {
	return BookPatch{
		Title:         &in.Title,
		Author:        &in.Author,
		PublishedDate: &in.PublishedDate,
		Pages:         in.Pages,
		Library:       &in.Library,
	}
}

// ParsePublishedDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp and returns
// it in UTC, truncated to the millisecond precision the stores keep.
func ParsePublishedDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t.UTC().Truncate(time.Millisecond), nil
}

// Resolved holds the referenced entities loaded while validating a write.
// A field is nil when the write did not reference that entity.
type Resolved struct {
	Author  *models.Author
	Library *models.Library
}

// BookValidator checks book writes against the caller's memberships and the referenced entities.
type BookValidator struct {
	authors   store.Authors
	libraries store.Libraries
	validate  *validator.Validate
}

// NewBookValidator creates a BookValidator.
func NewBookValidator(authors store.Authors, libraries store.Libraries) *BookValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("entityid", func(fl validator.FieldLevel) bool {
		return store.ValidID(fl.Field().String())
	})
	_ = v.RegisterValidation("bookdate", func(fl validator.FieldLevel) bool {
		_, err := ParsePublishedDate(fl.Field().String())
		return err == nil
	})
	return &BookValidator{authors: authors, libraries: libraries, validate: v}
}

// ValidateCreate runs every check for a new book.
func (v *BookValidator) ValidateCreate(ctx context.Context, claims *auth.Claims, in BookInput) (Resolved, error) {
	if err := v.CheckSchema(ctx, in); err != nil {
		return Resolved{}, err
	}
	return v.CheckReferences(ctx, claims, in.Patch())
}

// CheckSchema validates the shape of a BookInput or BookPatch.
func (v *BookValidator) CheckSchema(ctx context.Context, input interface{}) error {
	if err := v.validate.StructCtx(ctx, input); err != nil {
		return schemaError(err)
	}
	return nil
}

// CheckReferences runs membership, then author existence, then library existence,
// stopping at the first failure. Only the fields present in p are checked.
func (v *BookValidator) CheckReferences(ctx context.Context, claims *auth.Claims, p BookPatch) (Resolved, error) {
	var res Resolved

	if p.Library != nil && !claims.IsMember(*p.Library) {
		return Resolved{}, apperr.New(apperr.Forbidden, "You are not a member of the target library")
	}

	if p.Author != nil {
		author, err := v.authors.GetAuthor(ctx, *p.Author)
		if errors.Is(err, store.ErrNotFound) {
			return Resolved{}, apperr.New(apperr.NotFound, "Author not found")
		}
		if err != nil {
			return Resolved{}, err
		}
		res.Author = &author
	}

	if p.Library != nil {
		library, err := v.libraries.GetLibrary(ctx, *p.Library)
		if errors.Is(err, store.ErrNotFound) {
			return Resolved{}, apperr.New(apperr.NotFound, "Library not found")
		}
		if err != nil {
			return Resolved{}, err
		}
		res.Library = &library
	}

	return res, nil
}

func schemaError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.MalformedInput, err.Error(), err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.Wrap(apperr.MalformedInput, strings.Join(msgs, "; "), err)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "entityid":
		return field + " must be a valid id"
	case "bookdate":
		return field + " must be a date (YYYY-MM-DD) or RFC 3339 timestamp"
	case "gt":
		return field + " must be a positive number"
	case "min":
		return field + " must not be empty"
	default:
		return field + " is invalid"
	}
}
