package history

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/liurenlab/liuren/internal/apperror"
)

// Handler handles HTTP requests for history operations. Handlers are thin:
// bind request, call service, render response. No business logic lives here.
type Handler struct {
	service Service
}

// NewHandler creates a new history handler backed by the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List returns all records newest-first (GET /api/v1/history).
func (h *Handler) List(c echo.Context) error {
	records, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if records == nil {
		records = []Record{}
	}
	return c.JSON(http.StatusOK, records)
}

// Grouped returns records bucketed by elapsed time
// (GET /api/v1/history/grouped).
func (h *Handler) Grouped(c echo.Context) error {
	groups, err := h.service.Grouped(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, groups)
}

// Get returns one record by id (GET /api/v1/history/:id).
func (h *Handler) Get(c echo.Context) error {
	rec, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

// Create saves a divination result as a record (POST /api/v1/history).
func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	rec, err := h.service.Add(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}

// Update modifies a record's question/notes/emoji
// (PUT /api/v1/history/:id).
func (h *Handler) Update(c echo.Context) error {
	var req UpdateRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	rec, err := h.service.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

// Delete removes a record (DELETE /api/v1/history/:id).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Prune applies the retention window (POST /api/v1/history/prune).
func (h *Handler) Prune(c echo.Context) error {
	removed, err := h.service.Prune(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}
