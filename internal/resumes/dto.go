package resumes

import "time"

// ResumeResponse is the listing representation of a resume.
type ResumeResponse struct {
	FileID        string    `json:"file_id"`
	Filename      string    `json:"filename"`
	FileExtension string    `json:"file_extension"`
	CreatedAt     time.Time `json:"created_at"`
}

func toResponse(r Resume) ResumeResponse {
	return ResumeResponse{
		FileID:        r.FileID.String(),
		Filename:      r.Filename,
		FileExtension: r.FileExtension,
		CreatedAt:     r.CreatedAt,
	}
}
