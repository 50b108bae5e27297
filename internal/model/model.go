// Package model declares the catalog records and the schema describing how
// each resource is exposed over HTTP.
//
// Records carry three sets of tags:
//   - json: the wire name, also used for filters and field errors
//   - gorm: column mapping for the ORM
//   - validate: the required-field set checked before any write
package model

import (
	"strings"

	"github.com/deppfellow/bookstore/internal/validation"
)

var validate = validation.New()

// Record is implemented by every catalog entity.
type Record interface {
	validation.Validatable

	// NaturalKey returns the fields, by JSON name, that must be unique among
	// stored records besides the identity.
	NaturalKey() map[string]any
}

// Schema describes one resource exposed under /api/v1.
type Schema struct {
	// Kind names the resource in messages, e.g. "Author 3 not found".
	Kind string

	// Noun is the lower-case form used in conflict messages.
	Noun string

	// Path is the route segment under /api/v1.
	Path string

	// Filters lists the JSON fields a list query may filter on.
	Filters []string

	// Patchable exposes PATCH for partial merges.
	Patchable bool
}

// CanonicalFilter resolves a query parameter name to a recognized filter.
// Matching is case-insensitive, mirroring how JSON bodies are decoded.
func (s Schema) CanonicalFilter(name string) (string, bool) {
	for _, filter := range s.Filters {
		if strings.EqualFold(filter, name) {
			return filter, true
		}
	}
	return "", false
}

// NotFoundMessage formats the 404 message for an identity of this resource.
func (s Schema) NotFoundMessage(id string) string {
	return s.Kind + " " + id + " not found"
}

// ConflictMessage formats the 409 message for this resource.
func (s Schema) ConflictMessage() string {
	return "This " + s.Noun + " already exists"
}

// DeletedMessage formats the delete confirmation for this resource.
func (s Schema) DeletedMessage() string {
	return s.Kind + " deleted"
}

var (
	Editors = Schema{
		Kind:    "Editor",
		Noun:    "editor",
		Path:    "editors",
		Filters: []string{"id", "name"},
	}

	Authors = Schema{
		Kind:      "Author",
		Noun:      "author",
		Path:      "authors",
		Filters:   []string{"id", "lastName", "firstName", "biography"},
		Patchable: true,
	}

	Awards = Schema{
		Kind:    "Award",
		Noun:    "award",
		Path:    "awards",
		Filters: []string{"id", "name"},
	}

	Genres = Schema{
		Kind:    "Genre",
		Noun:    "genre",
		Path:    "genres",
		Filters: []string{"id", "name"},
	}

	Books = Schema{
		Kind:    "Book",
		Noun:    "book",
		Path:    "books",
		Filters: []string{"id", "bookRef", "publicationYear", "price", "editorId", "authorId"},
	}

	Events = Schema{
		Kind:      "Event",
		Noun:      "event",
		Path:      "events",
		Filters:   []string{"id", "title", "description", "date"},
		Patchable: true,
	}

	Users = Schema{
		Kind:    "User",
		Noun:    "user",
		Path:    "users",
		Filters: []string{"username", "fullName", "country"},
	}

	AuthorsAwards = Schema{
		Kind:    "AuthorAward",
		Noun:    "author award",
		Path:    "authorsAwards",
		Filters: []string{"id", "authorId", "awardId"},
	}
)
