package entities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recommendation-backend/internal/facts"
)

type stubSelections Map

func (s stubSelections) Grouped(context.Context, uuid.UUID) (Map, error) {
	return Map(s), nil
}

func TestEntitiesRouteParsesOnceThenReportsSelections(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fx := newFixture(t)
	id := fx.upload(t, "Skills: Go")
	fx.mock.ExtractFactsFunc = func(context.Context, string) (facts.Facts, error) {
		return facts.Facts{Skills: []string{"Go"}}, nil
	}

	selected := stubSelections{LabelSkill: {{Label: LabelSkill, Text: "go"}}}
	r := gin.New()
	NewHandler(fx.svc, selected).RegisterRoutes(r.Group("/api/v1"))

	var body struct {
		Entities Map `json:"entities"`
		Selected Map `json:"selected"`
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/files/resume/"+id.String()+"/entities", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"go"}, texts(body.Entities[LabelSkill]))
	assert.Empty(t, body.Selected)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/files/resume/"+id.String()+"/entities", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"go"}, texts(body.Selected[LabelSkill]))
	assert.Equal(t, 1, fx.mock.ExtractFactsCalls)
}

func TestParseRouteErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fx := newFixture(t)
	r := gin.New()
	NewHandler(fx.svc, nil).RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/files/resume/"+uuid.NewString()+"/parse", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	id := fx.upload(t, "Skills: Go")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/files/resume/"+id.String()+"/parse?source=magic", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/files/resume/"+id.String()+"/parse?source=text", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"entities":{"SKILL":[{"label":"SKILL","text":"go","language":"ru"}]}}`, resp.Body.String())
}
