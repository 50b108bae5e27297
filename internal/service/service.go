// Package service contains the business logic.
//
// It sits between the handler and repository layers. Every catalog resource
// follows the same protocol, so a single generic Resource implements it and
// each resource only contributes its schema and reference checks.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/deppfellow/bookstore/internal/errs"
	"github.com/deppfellow/bookstore/internal/model"
	"github.com/deppfellow/bookstore/internal/repository"
	"github.com/deppfellow/bookstore/internal/validation"
	"github.com/rs/zerolog"
)

// Store is the persistence contract a Resource depends on.
type Store[T any] interface {
	Create(ctx context.Context, rec *T) error
	Get(ctx context.Context, id string) (*T, error)
	FindOne(ctx context.Context, match map[string]any) (*T, error)
	List(ctx context.Context, filters map[string]string) ([]T, error)
	Replace(ctx context.Context, id string, rec *T) error
	Patch(ctx context.Context, id string, fields map[string]any) (string, error)
	Delete(ctx context.Context, id string) error
}

// Reference is a foreign identity carried by T that must exist before T is
// written.
type Reference[T any] struct {
	// Kind names the referenced resource in the 404 message.
	Kind string

	// ID extracts the referenced identity; "" means the reference is unset.
	ID func(T) string

	Exists func(ctx context.Context, id string) (bool, error)
}

// RefersTo builds a Reference resolved against the store of the referenced
// resource.
func RefersTo[T, R any](target model.Schema, id func(T) string, store Store[R]) Reference[T] {
	return Reference[T]{
		Kind: target.Kind,
		ID:   id,
		Exists: func(ctx context.Context, id string) (bool, error) {
			_, err := store.Get(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		},
	}
}

// Message is the body returned by a successful delete.
type Message struct {
	Message string `json:"message"`
}

// Resource implements create, read, list, replace, patch and delete for one
// catalog resource.
type Resource[T model.Record] struct {
	schema model.Schema
	store  Store[T]
	refs   []Reference[T]
}

func NewResource[T model.Record](schema model.Schema, store Store[T], refs ...Reference[T]) *Resource[T] {
	return &Resource[T]{
		schema: schema,
		store:  store,
		refs:   refs,
	}
}

// Schema returns the resource description.
func (r *Resource[T]) Schema() model.Schema {
	return r.schema
}

func (r *Resource[T]) notFound(id string) *errs.HTTPError {
	return errs.NewNotFoundError(r.schema.NotFoundMessage(id), true, nil)
}

func (r *Resource[T]) checkReferences(ctx context.Context, rec T) error {
	for _, ref := range r.refs {
		id := ref.ID(rec)
		if id == "" {
			continue
		}
		ok, err := ref.Exists(ctx, id)
		if err != nil {
			return fmt.Errorf("checking %s %s: %w", ref.Kind, id, err)
		}
		if !ok {
			return errs.NewNotFoundError(ref.Kind+" "+id+" not found", true, nil)
		}
	}
	return nil
}

func (r *Resource[T]) checkConflict(ctx context.Context, rec T) error {
	_, err := r.store.FindOne(ctx, rec.NaturalKey())
	switch {
	case err == nil:
		return errs.NewConflictError(r.schema.ConflictMessage(), true, nil)
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("checking %s uniqueness: %w", r.schema.Noun, err)
	}
}

// Create stores a validated record after its references and natural key
// have been checked.
func (r *Resource[T]) Create(ctx context.Context, rec *T) (*T, error) {
	if err := r.checkReferences(ctx, *rec); err != nil {
		return nil, err
	}

	if err := r.checkConflict(ctx, *rec); err != nil {
		return nil, err
	}

	if err := r.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("creating %s: %w", r.schema.Noun, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("kind", r.schema.Kind).
		Msg("record created")

	return rec, nil
}

// Get loads one record.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	rec, err := r.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, r.notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the records matching every recognized query parameter.
func (r *Resource[T]) List(ctx context.Context, query map[string][]string) ([]T, error) {
	return r.store.List(ctx, r.Filters(query))
}

// Filters keeps the query parameters naming a known filter, canonicalized to
// the schema's spelling. Parameters are visited in sorted order and the first
// value of the first spelling wins.
func (r *Resource[T]) Filters(query map[string][]string) map[string]string {
	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)

	filters := make(map[string]string, len(names))
	for _, name := range names {
		canonical, ok := r.schema.CanonicalFilter(name)
		if !ok || len(query[name]) == 0 {
			continue
		}
		if _, seen := filters[canonical]; seen {
			continue
		}
		filters[canonical] = query[name][0]
	}
	return filters
}

// Replace overwrites the record at id with rec. The identity in the path is
// authoritative; one carried by rec is ignored.
func (r *Resource[T]) Replace(ctx context.Context, id string, rec *T) (*T, error) {
	if err := r.checkReferences(ctx, *rec); err != nil {
		return nil, err
	}

	err := r.store.Replace(ctx, id, rec)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, r.notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("replacing %s: %w", r.schema.Noun, err)
	}

	return r.Get(ctx, id)
}

// Patch merges fields into the record at id and returns it under its
// resulting identity. The merged record must pass the same validation as a
// created one.
func (r *Resource[T]) Patch(ctx context.Context, id string, fields map[string]any) (*T, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, err := merge(current, fields)
	if err != nil {
		return nil, err
	}
	if err := (*merged).Validate(); err != nil {
		return nil, validation.ToHTTPError(err)
	}
	if err := r.checkReferences(ctx, *merged); err != nil {
		return nil, err
	}

	newID, err := r.store.Patch(ctx, id, fields)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, r.notFound(id)
	case errors.Is(err, repository.ErrInvalidValue):
		return nil, errs.NewBadRequestError(err.Error(), true, nil, nil, nil)
	case err != nil:
		return nil, fmt.Errorf("patching %s: %w", r.schema.Noun, err)
	}

	if newID != id {
		zerolog.Ctx(ctx).Info().
			Str("kind", r.schema.Kind).
			Str("from", id).
			Str("to", newID).
			Msg("record identity changed")
	}

	return r.Get(ctx, newID)
}

// merge applies the members of fields naming a field of current, matched
// without regard to case, and returns the result as a new record. Other
// members are ignored. Two spellings of the same field are rejected so the
// outcome never depends on member order.
func merge[T any](current *T, fields map[string]any) (*T, error) {
	doc, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var members map[string]any
	if err := json.Unmarshal(doc, &members); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	known := make(map[string]string, len(members))
	for name := range members {
		known[strings.ToLower(name)] = name
	}

	given := make(map[string]bool, len(fields))
	for name, value := range fields {
		canonical, ok := known[strings.ToLower(name)]
		if !ok {
			continue
		}
		if given[canonical] {
			return nil, errs.NewBadRequestError(
				fmt.Sprintf("Field %s is given more than once", canonical), true, nil, nil, nil)
		}
		given[canonical] = true
		members[canonical] = value
	}

	doc, err = json.Marshal(members)
	if err != nil {
		return nil, errs.NewBadRequestError("One or more values are invalid", true, nil, nil, nil)
	}
	merged := new(T)
	if err := json.Unmarshal(doc, merged); err != nil {
		return nil, errs.NewBadRequestError("One or more values are invalid", true, nil, nil, nil)
	}
	return merged, nil
}

// Delete removes the record at id.
func (r *Resource[T]) Delete(ctx context.Context, id string) (*Message, error) {
	err := r.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, r.notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", r.schema.Noun, err)
	}

	return &Message{Message: r.schema.DeletedMessage()}, nil
}
