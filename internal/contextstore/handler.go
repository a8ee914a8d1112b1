package contextstore

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"recommendation-backend/internal/shared/server/middleware"
	"recommendation-backend/internal/shared/server/respond"
)

// Handler exposes the indexed chunks of a resume.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/files/resume/:id/context", h.context)
}

func (h *Handler) context(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.ResumeIDKey, id.String())

	chunks, err := h.Svc.GetDocuments(c.Request.Context(), id.String())
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			respond.Error(c, http.StatusBadGateway, "upstream_error", "context store unavailable", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load context", nil)
		return
	}
	respond.OK(c, gin.H{"chunks": chunks})
}
