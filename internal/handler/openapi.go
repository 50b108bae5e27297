package handler

import (
	"fmt"
	"net/http"
	"os"

	"github.com/deppfellow/bookstore/internal/server"
	"github.com/labstack/echo/v4"
)

// OpenAPIUIPath is the page rendering static/openapi.json.
const OpenAPIUIPath = "static/openapi.html"

// OpenAPIHandler serves the interactive API documentation.
type OpenAPIHandler struct {
	Handler
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPIUI serves the docs page uncached so edits show up immediately.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")

	page, err := os.ReadFile(OpenAPIUIPath)
	if err != nil {
		return fmt.Errorf("failed to read OpenAPI UI template: %w", err)
	}

	if err := c.HTMLBlob(http.StatusOK, page); err != nil {
		return fmt.Errorf("failed to write HTML response: %w", err)
	}

	return nil
}
