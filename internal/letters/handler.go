package letters

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"recommendation-backend/internal/contextstore"
	"recommendation-backend/internal/llm"
	"recommendation-backend/internal/shared/server/middleware"
	"recommendation-backend/internal/shared/server/respond"
)

type resumeRef struct {
	FileID string `json:"file_id" binding:"required"`
	URL    string `json:"url"`
}

type personality struct {
	Name   string    `json:"name"`
	Resume resumeRef `json:"resume"`
}

type recommendationRequest struct {
	Personalities struct {
		Principal     personality `json:"principal"`
		Grantee       personality `json:"grantee"`
		Circumstances string      `json:"circumstances"`
	} `json:"personalities"`
	Recommendation struct {
		Type       string `json:"type" binding:"required"`
		Directives string `json:"directives"`
	} `json:"recommendation"`
}

func (r recommendationRequest) toRequest() (Request, error) {
	principal, err := uuid.Parse(r.Personalities.Principal.Resume.FileID)
	if err != nil {
		return Request{}, errors.New("invalid principal resume file_id")
	}
	grantee, err := uuid.Parse(r.Personalities.Grantee.Resume.FileID)
	if err != nil {
		return Request{}, errors.New("invalid grantee resume file_id")
	}
	return Request{
		Principal:     Party{Name: r.Personalities.Principal.Name, ResumeID: principal},
		Grantee:       Party{Name: r.Personalities.Grantee.Name, ResumeID: grantee},
		Circumstances: r.Personalities.Circumstances,
		Type:          r.Recommendation.Type,
		Directives:    r.Recommendation.Directives,
	}, nil
}

// Handler wires HTTP routes for recommendation letters.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a letters handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes registers letter routes. guards run before generation.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, guards ...gin.HandlerFunc) {
	rg.POST("/recommendation", append(guards[:len(guards):len(guards)], h.generate)...)
	rg.GET("/recommendation/letter/:id", h.download)
	rg.DELETE("/recommendation/letter/:id", h.delete)
	rg.GET("/recommendation/resume/:id/letters", h.list)
}

func (h *Handler) generate(c *gin.Context) {
	var body recommendationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}
	req, err := body.toRequest()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	c.Set(middleware.ResumeIDKey, req.Grantee.ResumeID.String())

	letter, err := h.Svc.Generate(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidType):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrFactsNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Resume facts not found in the database.", nil)
		case errors.Is(err, llm.ErrUnavailable), errors.Is(err, contextstore.ErrUnavailable):
			respond.Error(c, http.StatusBadGateway, "upstream_error", "external service unavailable", err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate letter", nil)
		}
		return
	}
	c.Set(middleware.LetterIDKey, letter.LetterID.String())
	respond.OK(c, gin.H{"letter_id": letter.LetterID.String()})
}

func (h *Handler) download(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.LetterIDKey, id.String())

	letter, rc, err := h.Svc.Open(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "File not found.", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open letter", nil)
		}
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read letter", nil)
		return
	}
	respond.Attachment(c, letter.LetterID.String()+".docx", ContentType, data)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.LetterIDKey, id.String())

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete letter", nil)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) list(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.ResumeIDKey, id.String())

	rows, err := h.Svc.ListByResume(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list letters", nil)
		return
	}
	out := make([]LetterResponse, 0, len(rows))
	for _, l := range rows {
		out = append(out, toResponse(l))
	}
	respond.OK(c, gin.H{"letters": out})
}
