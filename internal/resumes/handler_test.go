package resumes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(newTestService(t)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func uploadRequest(t *testing.T, name string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/resume", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadReturnsCreatedThenOK(t *testing.T) {
	r := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "cv.txt", []byte("resume body")))
	require.Equal(t, http.StatusCreated, resp.Code)

	var first struct {
		FileID string `json:"file_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))
	require.NotEmpty(t, first.FileID)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "renamed.txt", []byte("resume body")))
	require.Equal(t, http.StatusOK, resp.Code)

	var second struct {
		FileID string `json:"file_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
	assert.Equal(t, first.FileID, second.FileID)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/files/resume/"+first.FileID, nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "resume body", resp.Body.String())
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "renamed.txt")

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/files/resume", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	var listed struct {
		Resumes []ResumeResponse `json:"resumes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed.Resumes, 1)
	assert.Equal(t, "renamed", listed.Resumes[0].Filename)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/files/resume/"+first.FileID, nil))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/files/resume/"+first.FileID, nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	r := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "cv.exe", []byte("MZ")))
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "Invalid file type. Only pdf, docx, txt allowed.", body.Error.Message)
}

func TestDownloadRejectsMalformedID(t *testing.T) {
	r := newTestRouter(t)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/files/resume/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
