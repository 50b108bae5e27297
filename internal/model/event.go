package model

import (
	"strconv"
	"time"
)

// Event is a dated happening such as a signing or a reading.
type Event struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	Date        *Timestamp `json:"date" gorm:"not null" validate:"required"`
	Description string     `json:"description" gorm:"not null" validate:"required"`
	Title       string     `json:"title" gorm:"not null" validate:"required"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

func (Event) TableName() string { return "events" }

func (e Event) Validate() error { return validate.Struct(e) }

func (e Event) NaturalKey() map[string]any {
	var date any
	if e.Date != nil {
		date = *e.Date
	}
	return map[string]any{"title": e.Title, "date": date}
}

// User is a customer account, identified by username.
type User struct {
	Username  string    `json:"username" gorm:"primaryKey" validate:"required"`
	FullName  string    `json:"fullName" gorm:"not null" validate:"required"`
	Country   string    `json:"country" gorm:"not null" validate:"required"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (User) TableName() string { return "users" }

func (u User) Validate() error { return validate.Struct(u) }

func (u User) NaturalKey() map[string]any {
	return map[string]any{"username": u.Username}
}

// AuthorAward links an author to an award they received.
type AuthorAward struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	AuthorID  int64     `json:"authorId" gorm:"not null" validate:"required"`
	AwardID   int64     `json:"awardId" gorm:"not null" validate:"required"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (AuthorAward) TableName() string { return "author_awards" }

func (a AuthorAward) Validate() error { return validate.Struct(a) }

func (a AuthorAward) NaturalKey() map[string]any {
	return map[string]any{"authorId": a.AuthorID, "awardId": a.AwardID}
}

// AuthorRef returns the referenced author id.
func (a AuthorAward) AuthorRef() string { return strconv.FormatInt(a.AuthorID, 10) }

// AwardRef returns the referenced award id.
func (a AuthorAward) AwardRef() string { return strconv.FormatInt(a.AwardID, 10) }
