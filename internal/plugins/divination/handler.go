package divination

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/liurenlab/liuren/internal/apperror"
)

// Recorder persists a finished divination as a history record. Save
// failures must never block the query result: implementations log and
// swallow them.
type Recorder interface {
	Record(ctx context.Context, question, emoji string, number int, result *Result)
}

// Handler handles HTTP requests for divination queries. Handlers are thin:
// bind request, call service, render response. No business logic lives here.
type Handler struct {
	service  Service
	recorder Recorder
}

// NewHandler creates a new divination handler. recorder may be nil, in
// which case successful queries are not saved to history.
func NewHandler(service Service, recorder Recorder) *Handler {
	return &Handler{service: service, recorder: recorder}
}

// Divine runs a divination query (POST /api/v1/divination).
// Validation errors surface as 422; a failed oracle call still yields a
// 200 with a Code:-1 result so clients always receive a typed envelope.
func (h *Handler) Divine(c echo.Context) error {
	var req QueryRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	result, err := h.service.Divine(c.Request().Context(), string(req.Number), req.Time)
	if err != nil {
		return err
	}

	if result.Code == 0 && h.recorder != nil {
		number, _ := ParseNumber(string(req.Number))
		h.recorder.Record(c.Request().Context(), req.Question, req.Emoji, number, result)
	}

	return c.JSON(http.StatusOK, result)
}
