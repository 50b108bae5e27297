package handler

import (
	"net/http"

	"github.com/deppfellow/bookstore/internal/model"
	"github.com/deppfellow/bookstore/internal/server"
	"github.com/deppfellow/bookstore/internal/service"
	"github.com/labstack/echo/v4"
)

// Fields is a PATCH body: the JSON members to merge into a record.
type Fields map[string]any

// Registrar is implemented by handlers that own a route group.
type Registrar interface {
	Register(g *echo.Group)
}

// ResourceHandler exposes one catalog resource over HTTP.
type ResourceHandler[T model.Record] struct {
	Handler
	resource *service.Resource[T]
}

func NewResourceHandler[T model.Record](s *server.Server, resource *service.Resource[T]) *ResourceHandler[T] {
	return &ResourceHandler[T]{
		Handler:  NewHandler(s),
		resource: resource,
	}
}

// Register mounts the resource routes under g. PATCH is only mounted for
// patchable resources.
func (h *ResourceHandler[T]) Register(g *echo.Group) {
	schema := h.resource.Schema()
	r := g.Group("/" + schema.Path)

	r.POST("", Handle[T, *T](h.Handler, h.Create, http.StatusCreated))
	r.GET("", Handle[NoBody, []T](h.Handler, h.List, http.StatusOK))
	r.GET("/:id", Handle[NoBody, *T](h.Handler, h.Get, http.StatusOK))
	r.PUT("/:id", Handle[T, *T](h.Handler, h.Replace, http.StatusOK))
	if schema.Patchable {
		r.PATCH("/:id", Handle[Fields, *T](h.Handler, h.Patch, http.StatusOK))
	}
	r.DELETE("/:id", Handle[NoBody, *service.Message](h.Handler, h.Delete, http.StatusOK))
}

func (h *ResourceHandler[T]) Create(c echo.Context, req *T) (*T, error) {
	return h.resource.Create(c.Request().Context(), req)
}

func (h *ResourceHandler[T]) List(c echo.Context, _ *NoBody) ([]T, error) {
	return h.resource.List(c.Request().Context(), c.QueryParams())
}

func (h *ResourceHandler[T]) Get(c echo.Context, _ *NoBody) (*T, error) {
	return h.resource.Get(c.Request().Context(), c.Param("id"))
}

func (h *ResourceHandler[T]) Replace(c echo.Context, req *T) (*T, error) {
	return h.resource.Replace(c.Request().Context(), c.Param("id"), req)
}

func (h *ResourceHandler[T]) Patch(c echo.Context, req *Fields) (*T, error) {
	return h.resource.Patch(c.Request().Context(), c.Param("id"), *req)
}

func (h *ResourceHandler[T]) Delete(c echo.Context, _ *NoBody) (*service.Message, error) {
	return h.resource.Delete(c.Request().Context(), c.Param("id"))
}
