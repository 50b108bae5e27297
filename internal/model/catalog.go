package model

import "time"

// Editor publishes books.
type Editor struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null" validate:"required"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Editor) TableName() string { return "editors" }

func (e Editor) Validate() error { return validate.Struct(e) }

func (e Editor) NaturalKey() map[string]any {
	return map[string]any{"name": e.Name}
}

// Author writes books and receives awards.
type Author struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	LastName  string    `json:"lastName" gorm:"not null" validate:"required"`
	FirstName string    `json:"firstName" gorm:"not null" validate:"required"`
	Biography *string   `json:"biography"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Author) TableName() string { return "authors" }

func (a Author) Validate() error { return validate.Struct(a) }

func (a Author) NaturalKey() map[string]any {
	return map[string]any{"lastName": a.LastName, "firstName": a.FirstName}
}

// Award is a literary prize.
type Award struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null" validate:"required"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Award) TableName() string { return "awards" }

func (a Award) Validate() error { return validate.Struct(a) }

func (a Award) NaturalKey() map[string]any {
	return map[string]any{"name": a.Name}
}

// Genre classifies books.
type Genre struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null" validate:"required"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Genre) TableName() string { return "genres" }

func (g Genre) Validate() error { return validate.Struct(g) }

func (g Genre) NaturalKey() map[string]any {
	return map[string]any{"name": g.Name}
}
