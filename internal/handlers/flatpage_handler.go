package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/postboard/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FlatPageHandler serves static content pages under /about
type FlatPageHandler struct {
	flatPageRepository repositories.FlatPageRepository
}

// NewFlatPageHandler creates a new FlatPageHandler
func NewFlatPageHandler(repo repositories.FlatPageRepository) *FlatPageHandler {
	return &FlatPageHandler{flatPageRepository: repo}
}

// RegisterFlatPageRoutes registers the flat page route
func (h *FlatPageHandler) RegisterFlatPageRoutes(e *echo.Echo) {
	e.GET("/about/:slug", h.GetFlatPage)
}

// GetFlatPage looks the page up by its canonical url, /about/<slug>/.
func (h *FlatPageHandler) GetFlatPage(c echo.Context) error {
	page, err := h.flatPageRepository.GetFlatPageByURL(c.Request().Context(), "/about/"+c.Param("slug")+"/")
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get flatpage: %w", err)
	}
	return c.JSON(http.StatusOK, page)
}
