package handler

import (
	"github.com/deppfellow/bookstore/internal/model"
	"github.com/deppfellow/bookstore/internal/server"
	"github.com/deppfellow/bookstore/internal/service"
)

// Handlers is a container that groups all HTTP handlers.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler

	Editors       *ResourceHandler[model.Editor]
	Authors       *ResourceHandler[model.Author]
	Awards        *ResourceHandler[model.Award]
	Genres        *ResourceHandler[model.Genre]
	Books         *ResourceHandler[model.Book]
	Events        *ResourceHandler[model.Event]
	Users         *ResourceHandler[model.User]
	AuthorsAwards *ResourceHandler[model.AuthorAward]
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),

		Editors:       NewResourceHandler(s, services.Editors),
		Authors:       NewResourceHandler(s, services.Authors),
		Awards:        NewResourceHandler(s, services.Awards),
		Genres:        NewResourceHandler(s, services.Genres),
		Books:         NewResourceHandler(s, services.Books),
		Events:        NewResourceHandler(s, services.Events),
		Users:         NewResourceHandler(s, services.Users),
		AuthorsAwards: NewResourceHandler(s, services.AuthorsAwards),
	}
}

// Resources lists the catalog handlers in route registration order.
func (h *Handlers) Resources() []Registrar {
	return []Registrar{
		h.Editors,
		h.Authors,
		h.Awards,
		h.Genres,
		h.Books,
		h.Events,
		h.Users,
		h.AuthorsAwards,
	}
}
