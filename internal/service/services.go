package service

import (
	"github.com/deppfellow/bookstore/internal/model"
	"github.com/deppfellow/bookstore/internal/repository"
)

// Services holds one Resource per catalog resource.
type Services struct {
	Editors       *Resource[model.Editor]
	Authors       *Resource[model.Author]
	Awards        *Resource[model.Award]
	Genres        *Resource[model.Genre]
	Books         *Resource[model.Book]
	Events        *Resource[model.Event]
	Users         *Resource[model.User]
	AuthorsAwards *Resource[model.AuthorAward]
}

func NewServices(repos *repository.Repositories) *Services {
	return &Services{
		Editors: NewResource[model.Editor](model.Editors, repos.Editors),
		Authors: NewResource[model.Author](model.Authors, repos.Authors),
		Awards:  NewResource[model.Award](model.Awards, repos.Awards),
		Genres:  NewResource[model.Genre](model.Genres, repos.Genres),
		Books: NewResource[model.Book](model.Books, repos.Books,
			RefersTo[model.Book, model.Editor](model.Editors, model.Book.EditorRef, repos.Editors),
			RefersTo[model.Book, model.Author](model.Authors, model.Book.AuthorRef, repos.Authors),
		),
		Events: NewResource[model.Event](model.Events, repos.Events),
		Users:  NewResource[model.User](model.Users, repos.Users),
		AuthorsAwards: NewResource[model.AuthorAward](model.AuthorsAwards, repos.AuthorsAwards,
			RefersTo[model.AuthorAward, model.Author](model.Authors, model.AuthorAward.AuthorRef, repos.Authors),
			RefersTo[model.AuthorAward, model.Award](model.Awards, model.AuthorAward.AwardRef, repos.Awards),
		),
	}
}
