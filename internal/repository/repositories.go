package repository

import (
	"github.com/deppfellow/bookstore/internal/model"
	"github.com/deppfellow/bookstore/internal/server"
	"gorm.io/gorm"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Editors       *Store[model.Editor]
	Authors       *Store[model.Author]
	Awards        *Store[model.Award]
	Genres        *Store[model.Genre]
	Books         *Store[model.Book]
	Events        *Store[model.Event]
	Users         *Store[model.User]
	AuthorsAwards *Store[model.AuthorAward]
}

// NewRepositories builds one store per catalog table on the server's ORM handle.
func NewRepositories(s *server.Server) (*Repositories, error) {
	return newRepositories(s.DB.ORM)
}

func newRepositories(db *gorm.DB) (*Repositories, error) {
	var (
		repos Repositories
		err   error
	)

	if repos.Editors, err = NewStore[model.Editor](db); err != nil {
		return nil, err
	}
	if repos.Authors, err = NewStore[model.Author](db); err != nil {
		return nil, err
	}
	if repos.Awards, err = NewStore[model.Award](db); err != nil {
		return nil, err
	}
	if repos.Genres, err = NewStore[model.Genre](db); err != nil {
		return nil, err
	}
	if repos.Books, err = NewStore[model.Book](db); err != nil {
		return nil, err
	}
	if repos.Events, err = NewStore[model.Event](db); err != nil {
		return nil, err
	}
	if repos.Users, err = NewStore[model.User](db); err != nil {
		return nil, err
	}
	if repos.AuthorsAwards, err = NewStore[model.AuthorAward](db); err != nil {
		return nil, err
	}

	return &repos, nil
}
