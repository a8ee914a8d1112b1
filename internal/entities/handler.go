package entities

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"recommendation-backend/internal/contextstore"
	"recommendation-backend/internal/extract"
	"recommendation-backend/internal/llm"
	"recommendation-backend/internal/shared/server/middleware"
	"recommendation-backend/internal/shared/server/respond"
)

// Selections reports the entities chosen for research, grouped by label.
type Selections interface {
	Grouped(ctx context.Context, resumeID uuid.UUID) (Map, error)
}

// Handler wires HTTP routes for parsing resumes into entities.
type Handler struct {
	Svc        *Service
	Selections Selections
}

// NewHandler constructs an entities handler.
func NewHandler(svc *Service, selections Selections) *Handler {
	return &Handler{Svc: svc, Selections: selections}
}

// RegisterRoutes registers parse routes on the router group. guards run before
// the LLM-backed handlers.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, guards ...gin.HandlerFunc) {
	rg.POST("/files/resume/:id/parse", append(guards[:len(guards):len(guards)], h.parse)...)
	rg.GET("/files/resume/:id/entities", append(guards[:len(guards):len(guards)], h.entities)...)
}

func (h *Handler) parse(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.ResumeIDKey, id.String())

	source := c.Query("source")
	if source != "" && source != SourceLLM && source != SourceText {
		respond.Error(c, http.StatusBadRequest, "validation_error", "source must be llm or text", nil)
		return
	}
	m, err := h.Svc.Parse(c.Request.Context(), id, ParseOptions{Source: source, Language: c.Query("language")})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"entities": m})
}

func (h *Handler) entities(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.ResumeIDKey, id.String())
	ctx := c.Request.Context()

	m, found, err := h.Svc.GetEntities(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		m, err = h.Svc.Parse(ctx, id, ParseOptions{Language: c.Query("language")})
		if err != nil {
			writeError(c, err)
			return
		}
		respond.OK(c, gin.H{"entities": m, "selected": Map{}})
		return
	}

	selected := Map{}
	if h.Selections != nil {
		if selected, err = h.Selections.Grouped(ctx, id); err != nil {
			writeError(c, err)
			return
		}
	}
	respond.OK(c, gin.H{"entities": m, "selected": selected})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrResumeNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Resume file not found.", nil)
	case errors.Is(err, ErrInvalidLanguage), errors.Is(err, ErrNoText), errors.Is(err, extract.ErrUnsupportedFormat):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, llm.ErrUnavailable), errors.Is(err, contextstore.ErrUnavailable):
		respond.Error(c, http.StatusBadGateway, "upstream_error", "external service unavailable", err.Error())
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to parse resume", nil)
	}
}
