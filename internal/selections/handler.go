package selections

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"recommendation-backend/internal/entities"
	"recommendation-backend/internal/shared/server/middleware"
	"recommendation-backend/internal/shared/server/respond"
)

// Handler wires HTTP routes for entity selections.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a selections handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes registers selection routes on the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/entities/resume/:id/select", h.selectEntities)
	rg.GET("/entities/resume/:id/selected", h.selected)
}

func (h *Handler) selectEntities(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.ResumeIDKey, id.String())

	var body entities.Map
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if _, err := h.Svc.Replace(c.Request.Context(), id, body); err != nil {
		switch {
		case errors.Is(err, ErrEmptySelection):
			respond.Error(c, http.StatusBadRequest, "validation_error", "Entity list cannot be empty.", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save selections", nil)
		}
		return
	}
	respond.OK(c, gin.H{"status": "success", "message": "Entities selected."})
}

func (h *Handler) selected(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.ResumeIDKey, id.String())

	rows, err := h.Svc.List(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list selections", nil)
		return
	}
	out := make([]SelectionResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, toResponse(r))
	}
	respond.OK(c, gin.H{"data": out})
}
