package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structflo/structflo-ner/internal/application/annotation"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	"github.com/structflo/structflo-ner/internal/interfaces/http/handlers"
	"github.com/structflo/structflo-ner/internal/interfaces/http/middleware"
	"github.com/structflo/structflo-ner/internal/ner"
)

func testRouter(t *testing.T, deps annotation.Deps) *gin.Engine {
	t.Helper()
	if deps.Extractor == nil {
		ext, err := ner.New(ner.Options{
			SkipBundled: true,
			ExtraGazetteers: map[ner.EntityType][]string{
				ner.TypeCompound:  {"Bedaquiline", "Isoniazid"},
				ner.TypeTarget:    {"InhA"},
				ner.TypeAccession: {"Rv0005"},
			},
		})
		require.NoError(t, err)
		deps.Extractor = ext
	}
	deps.Logger = logging.NewNopLogger()
	svc, err := annotation.NewService(deps)
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		ExtractHandler:   handlers.NewExtractHandler(svc),
		GazetteerHandler: handlers.NewGazetteerHandler(svc),
		HealthHandler: handlers.NewHealthHandler(handlers.ReadinessCheck{
			Name:  "store",
			Check: func(context.Context) error { return nil },
		}),
		Logger: logging.NewNopLogger(),
		Mode:   gin.TestMode,
	})
}

func postJSON(t *testing.T, r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestExtractEndpoint(t *testing.T) {
	r := testRouter(t, annotation.Deps{})

	w := postJSON(t, r, "/api/v1/extract", handlers.ExtractRequest{Text: "Bedaquiline and Rv0005 but not Rifampicin"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.ExtractResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "Bedaquiline", resp.Entities[0].Canonical)
	assert.False(t, resp.Cached)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestExtractEndpointRejectsBadBody(t *testing.T) {
	r := testRouter(t, annotation.Deps{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COMMON_002", resp.Code)
}

func TestExtractEndpointTextLimit(t *testing.T) {
	r := testRouter(t, annotation.Deps{MaxTextBytes: 4})

	w := postJSON(t, r, "/api/v1/extract", handlers.ExtractRequest{Text: "too long for the limit"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchEndpoint(t *testing.T) {
	r := testRouter(t, annotation.Deps{})

	w := postJSON(t, r, "/api/v1/extract/batch", handlers.BatchExtractRequest{
		Texts: []string{"Isoniazid inhibits InhA", "nothing"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.BatchExtractResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 2, resp.Results[0].Count)
	assert.Equal(t, 0, resp.Results[1].Count)
}

func TestGazetteerSummaryEndpoint(t *testing.T) {
	r := testRouter(t, annotation.Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gazetteers", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var sum annotation.GazetteerSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 4, sum.TermCount)
	assert.NotEmpty(t, sum.Fingerprint)
}

func TestReloadEndpointWithoutOptions(t *testing.T) {
	r := testRouter(t, annotation.Deps{})

	w := postJSON(t, r, "/api/v1/gazetteers/reload", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	r := testRouter(t, annotation.Deps{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessFailure(t *testing.T) {
	failing := handlers.NewHealthHandler(handlers.ReadinessCheck{
		Name:  "redis",
		Check: func(context.Context) error { return errors.New("connection refused") },
	})
	r := NewRouter(RouterConfig{HealthHandler: failing, Logger: logging.NewNopLogger(), Mode: gin.TestMode})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestCORSPreflight(t *testing.T) {
	r := testRouter(t, annotation.Deps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/extract", nil)
	req.Header.Set("Origin", "https://structflo.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
