// Package repository handles all interactions with the database.
//
// A single generic Store serves every catalog table. It talks to PostgreSQL
// through GORM, which itself runs on the shared pgx pool, so constraint
// violations surface as *pgconn.PgError and are left for sqlerr to map.
package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var (
	// ErrNotFound reports that no row matched the identity or filter.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidValue reports a body value that cannot be stored in its column.
	ErrInvalidValue = errors.New("invalid value")
)

// Store persists records of one table.
type Store[T any] struct {
	db     *gorm.DB
	schema *schema.Schema
	pk     *schema.Field

	// fields indexes body-visible fields by lower-cased JSON name.
	fields map[string]*schema.Field
}

// NewStore parses the GORM schema of T and indexes its JSON-visible fields.
func NewStore[T any](db *gorm.DB) (*Store[T], error) {
	sch, err := schema.Parse(new(T), &sync.Map{}, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("parsing schema of %T: %w", *new(T), err)
	}

	if sch.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("table %s has no primary key", sch.Table)
	}

	s := &Store[T]{
		db:     db,
		schema: sch,
		pk:     sch.PrioritizedPrimaryField,
		fields: make(map[string]*schema.Field, len(sch.Fields)),
	}

	for _, f := range sch.Fields {
		name := jsonName(f.StructField)
		if name == "" || f.DBName == "" {
			continue
		}
		s.fields[strings.ToLower(name)] = f
	}

	return s, nil
}

// Table returns the backing table name.
func (s *Store[T]) Table() string {
	return s.schema.Table
}

func (s *Store[T]) field(name string) (*schema.Field, bool) {
	f, ok := s.fields[strings.ToLower(name)]
	return f, ok
}

func (s *Store[T]) byID(id string) (map[string]any, error) {
	key, err := coerceText(s.pk.FieldType, id)
	if err != nil || key == nil {
		return nil, ErrNotFound
	}
	return map[string]any{s.pk.DBName: key}, nil
}

// Create inserts rec. When the caller supplied an auto-increment identity the
// backing sequence is moved past it inside the same transaction.
func (s *Store[T]) Create(ctx context.Context, rec *T) error {
	explicitID := s.pk.AutoIncrement && !reflect.ValueOf(rec).Elem().FieldByIndex(s.pk.StructField.Index).IsZero()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("inserting into %s: %w", s.schema.Table, err)
		}
		if explicitID {
			return s.syncSequence(tx)
		}
		return nil
	})
}

func (s *Store[T]) syncSequence(tx *gorm.DB) error {
	stmt := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence(?, ?), (SELECT MAX(%s) FROM %s))",
		tx.Statement.Quote(s.pk.DBName),
		tx.Statement.Quote(s.schema.Table),
	)
	if err := tx.Exec(stmt, s.schema.Table, s.pk.DBName).Error; err != nil {
		return fmt.Errorf("advancing %s sequence: %w", s.schema.Table, err)
	}
	return nil
}

// Get loads the record with the given identity.
func (s *Store[T]) Get(ctx context.Context, id string) (*T, error) {
	where, err := s.byID(id)
	if err != nil {
		return nil, err
	}

	var rec T
	err = s.db.WithContext(ctx).Where(where).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s %s: %w", s.schema.Table, id, err)
	}

	return &rec, nil
}

// FindOne returns the first record equal to match on every JSON field.
func (s *Store[T]) FindOne(ctx context.Context, match map[string]any) (*T, error) {
	where := make(map[string]any, len(match))
	for name, value := range match {
		f, ok := s.field(name)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", s.schema.Table, name)
		}
		where[f.DBName] = plain(value)
	}

	var rec T
	err := s.db.WithContext(ctx).Where(where).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", s.schema.Table, err)
	}

	return &rec, nil
}

// List returns the records equal to every recognized filter, ordered by
// identity. A filter value that cannot be coerced matches nothing.
func (s *Store[T]) List(ctx context.Context, filters map[string]string) ([]T, error) {
	where, ok := s.filterClause(filters)
	if !ok {
		return []T{}, nil
	}

	out := []T{}
	q := s.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: s.pk.DBName}})
	if len(where) > 0 {
		q = q.Where(where)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.schema.Table, err)
	}

	return out, nil
}

func (s *Store[T]) filterClause(filters map[string]string) (map[string]any, bool) {
	where := make(map[string]any, len(filters))
	for name, raw := range filters {
		f, ok := s.field(name)
		if !ok {
			continue
		}
		value, err := coerceText(f.FieldType, raw)
		if err != nil {
			return nil, false
		}
		where[f.DBName] = value
	}
	return where, true
}

// Replace overwrites every body-visible column except the identity.
func (s *Store[T]) Replace(ctx context.Context, id string, rec *T) error {
	where, err := s.byID(id)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(new(T)).Where(where).Updates(s.columns(rec))
	if res.Error != nil {
		return fmt.Errorf("replacing %s %s: %w", s.schema.Table, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Store[T]) columns(rec *T) map[string]any {
	v := reflect.ValueOf(rec).Elem()
	values := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		if f == s.pk {
			continue
		}
		values[f.DBName] = plain(v.FieldByIndex(f.StructField.Index).Interface())
	}
	return values
}

// patchColumns resolves body members to column values. Members naming no
// field are skipped; two spellings of the same field are rejected.
func (s *Store[T]) patchColumns(fields map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(fields))
	given := make(map[string]string, len(fields))
	for name, raw := range fields {
		f, ok := s.field(name)
		if !ok {
			continue
		}
		if prev, dup := given[f.DBName]; dup {
			return nil, fmt.Errorf("%w: %s and %s name the same field", ErrInvalidValue, min(prev, name), max(prev, name))
		}
		given[f.DBName] = name

		value, err := coerceJSON(f.FieldType, raw)
		if err != nil || (f == s.pk && value == nil) {
			return nil, fmt.Errorf("%w for %s", ErrInvalidValue, jsonName(f.StructField))
		}
		values[f.DBName] = value
	}
	return values, nil
}

// Patch merges the recognized fields into the stored record and returns its
// identity afterwards, which differs from id when the patch moves it.
func (s *Store[T]) Patch(ctx context.Context, id string, fields map[string]any) (string, error) {
	where, err := s.byID(id)
	if err != nil {
		return "", err
	}

	values, err := s.patchColumns(fields)
	if err != nil {
		return "", err
	}

	newID := id
	if value, ok := values[s.pk.DBName]; ok {
		newID = fmt.Sprint(value)
	}

	if len(values) == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return "", err
		}
		return id, nil
	}

	_, moved := values[s.pk.DBName]
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(new(T)).Where(where).Updates(values)
		if res.Error != nil {
			return fmt.Errorf("patching %s %s: %w", s.schema.Table, id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if moved && s.pk.AutoIncrement {
			return s.syncSequence(tx)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return newID, nil
}

// Delete removes the record with the given identity.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	where, err := s.byID(id)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Where(where).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("deleting %s %s: %w", s.schema.Table, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
