package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recommendation-backend/internal/shared/metrics"
	"recommendation-backend/internal/shared/storage/gateway"
	"recommendation-backend/internal/shared/storage/object"
	"recommendation-backend/internal/shared/util"
)

// ListLimit caps List.
const ListLimit = 100

// Purger removes data derived from a resume. Delete runs purgers in order before
// dropping the resume itself.
type Purger interface {
	PurgeResume(ctx context.Context, resumeID uuid.UUID) error
}

// PurgerFunc adapts a function to Purger.
type PurgerFunc func(ctx context.Context, resumeID uuid.UUID) error

func (f PurgerFunc) PurgeResume(ctx context.Context, resumeID uuid.UUID) error {
	return f(ctx, resumeID)
}

// Service stores resume files and their metadata.
type Service struct {
	Store     object.ObjectStore
	Repo      Repo
	Namespace uuid.UUID

	AllowedExtensions []string
	MaxSizeBytes      int64

	// Dependents are purged, in order, when a resume is deleted.
	Dependents []Purger
	Metrics    *metrics.Recorder
	Logger     *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Validate checks the extension and size limits of an upload.
func (s *Service) Validate(ext string, size int64) error {
	if !slices.Contains(s.AllowedExtensions, ext) {
		return &ValidationError{Message: fmt.Sprintf("Invalid file type. Only %s allowed.", strings.Join(s.AllowedExtensions, ", "))}
	}
	if s.MaxSizeBytes > 0 && size > s.MaxSizeBytes {
		return s.tooLarge()
	}
	return nil
}

func (s *Service) tooLarge() *ValidationError {
	return &ValidationError{Message: fmt.Sprintf("File is too large. Maximum allowed size is %dMB.", s.MaxSizeBytes>>20)}
}

// Save stores data under its content id. created is false when identical bytes were
// stored before, whatever their extension; the stored object and its extension are kept
// and only the filename is refreshed.
func (s *Service) Save(ctx context.Context, filename string, data []byte) (res Resume, created bool, err error) {
	start := time.Now()
	defer func() { s.Metrics.Observe(metrics.StageUpload, start, err) }()

	stem, ext := util.SplitFileName(filename)
	if err := s.Validate(ext, int64(len(data))); err != nil {
		return Resume{}, false, err
	}
	if stem == "" {
		return Resume{}, false, &ValidationError{Message: "File name is required."}
	}

	id := util.ContentID(s.Namespace, data)
	existing, err := s.Get(ctx, id)
	switch {
	case err == nil:
		if err := s.ensureObject(ctx, existing.Key(), existing.FileExtension, data); err != nil {
			return Resume{}, false, err
		}
		res, err = s.rename(ctx, existing, stem)
	case errors.Is(err, ErrNotFound):
		if err := s.ensureObject(ctx, Key(id, ext), ext, data); err != nil {
			return Resume{}, false, err
		}
		res = Resume{FileID: id, Filename: stem, FileExtension: ext}
		if _, err = s.Repo.Create(ctx, &res); err != nil {
			err = fmt.Errorf("create resume: %w", err)
		}
		created = true
	}
	if err != nil {
		return Resume{}, false, err
	}

	s.logger().Info("resume.saved",
		zap.String("resume_id", id.String()),
		zap.String("ext", res.FileExtension),
		zap.Int("size", len(data)),
		zap.Bool("created", created),
	)
	return res, created, nil
}

// ensureObject writes data under key unless an object is already there.
func (s *Service) ensureObject(ctx context.Context, key, ext string, data []byte) error {
	exists, err := s.Store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check resume file: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := s.Store.Put(ctx, key, ContentType(ext), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store resume file: %w", err)
	}
	return nil
}

func (s *Service) rename(ctx context.Context, res Resume, stem string) (Resume, error) {
	if res.Filename == stem {
		return res, nil
	}
	if _, err := s.Repo.Update(ctx, res.ID, gateway.Values{"filename": stem}); err != nil {
		return Resume{}, fmt.Errorf("update resume: %w", err)
	}
	res.Filename = stem
	return res, nil
}

// Get returns the metadata row for id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Resume, error) {
	rows, err := s.Repo.FindAllBy(ctx, gateway.Query{Filters: []gateway.Filter{gateway.Eq("file_id", id)}, Limit: 1})
	if err != nil {
		return Resume{}, fmt.Errorf("find resume: %w", err)
	}
	if len(rows) == 0 {
		return Resume{}, ErrNotFound
	}
	return rows[0], nil
}

// List returns the most recent resumes, newest first.
func (s *Service) List(ctx context.Context) ([]Resume, error) {
	rows, err := s.Repo.FindAllBy(ctx, gateway.Query{Limit: ListLimit, Desc: true})
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	return rows, nil
}

// Open returns the resume and a reader over its bytes. Callers close the reader.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (Resume, io.ReadCloser, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return Resume{}, nil, err
	}
	rc, err := s.Store.Open(ctx, res.Key())
	if errors.Is(err, object.ErrNotFound) {
		return Resume{}, nil, ErrNotFound
	}
	if err != nil {
		return Resume{}, nil, fmt.Errorf("open resume file: %w", err)
	}
	return res, rc, nil
}

// Delete purges derived data, then the row, then the file. A missing file is not an error.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	for _, p := range s.Dependents {
		if err := p.PurgeResume(ctx, id); err != nil {
			return fmt.Errorf("purge resume %s: %w", id, err)
		}
	}
	if _, _, err := s.Repo.DeleteBy(ctx, gateway.Eq("file_id", id)); err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	if err := s.Store.Delete(ctx, res.Key()); err != nil {
		return fmt.Errorf("delete resume file: %w", err)
	}
	s.logger().Info("resume.deleted", zap.String("resume_id", id.String()))
	return nil
}

// ContentType maps an upload extension to its MIME type.
func ContentType(ext string) string {
	switch ext {
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
