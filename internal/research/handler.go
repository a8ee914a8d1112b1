package research

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"recommendation-backend/internal/contextstore"
	"recommendation-backend/internal/llm"
	"recommendation-backend/internal/shared/server/middleware"
	"recommendation-backend/internal/shared/server/respond"
)

// Handler wires HTTP routes for entity research.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a research handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes registers research routes. guards run before the LLM-backed POST.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, guards ...gin.HandlerFunc) {
	rg.POST("/research/resume/:id", append(guards[:len(guards):len(guards)], h.research)...)
	rg.GET("/research/resume/:id", h.list)
}

func (h *Handler) research(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.ResumeIDKey, id.String())

	data, err := h.Svc.Research(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrUnavailable), errors.Is(err, contextstore.ErrUnavailable):
			respond.Error(c, http.StatusBadGateway, "upstream_error", "external service unavailable", err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to research entities", nil)
		}
		return
	}
	respond.OK(c, gin.H{"data": data})
}

func (h *Handler) list(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.ResumeIDKey, id.String())

	data, err := h.Svc.All(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load research", nil)
		return
	}
	respond.OK(c, gin.H{"data": data})
}
