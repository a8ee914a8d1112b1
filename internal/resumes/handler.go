package resumes

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"recommendation-backend/internal/shared/server/middleware"
	"recommendation-backend/internal/shared/server/respond"
)

// multipart framing on top of the file itself
const formOverhead = 1 << 20

// Handler wires HTTP routes for resume files.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a resumes handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes registers resume file routes on the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/files/resume", h.upload)
	rg.GET("/files/resume", h.list)
	rg.GET("/files/resume/:id", h.download)
	rg.DELETE("/files/resume/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	if h.Svc.MaxSizeBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxSizeBytes+formOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusBadRequest, "validation_error", h.Svc.tooLarge().Message, nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	res, created, err := h.Svc.Save(c.Request.Context(), fh.Filename, data)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			respond.Error(c, http.StatusBadRequest, "validation_error", verr.Message, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store resume", nil)
		}
		return
	}
	c.Set(middleware.ResumeIDKey, res.FileID.String())

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.JSON(c, status, gin.H{"file_id": res.FileID.String()})
}

func (h *Handler) list(c *gin.Context) {
	rows, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list resumes", nil)
		return
	}
	out := make([]ResumeResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, toResponse(r))
	}
	respond.OK(c, gin.H{"resumes": out})
}

func (h *Handler) download(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.ResumeIDKey, id.String())

	res, rc, err := h.Svc.Open(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "File not found.", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open resume", nil)
		}
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read resume", nil)
		return
	}
	respond.Attachment(c, res.Filename+"."+res.FileExtension, ContentType(res.FileExtension), data)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := respond.UUIDParam(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.ResumeIDKey, id.String())

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "File not found.", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete resume", nil)
		}
		return
	}
	respond.NoContent(c)
}
