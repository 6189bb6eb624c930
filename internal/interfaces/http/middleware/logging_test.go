package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structflo/structflo-ner/internal/testutil"
)

func newTestRouter(log *testutil.MockLogger, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(log, nil))
	r.GET("/probe", func(c *gin.Context) {
		c.Status(status)
	})
	return r
}

func TestRequestLoggerLevelTracksStatus(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusBadRequest, "warn"},
		{http.StatusInternalServerError, "error"},
	}

	for _, tc := range cases {
		log := testutil.NewMockLogger()
		r := newTestRouter(log, tc.status)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))

		require.Equal(t, tc.status, rec.Code)
		assert.True(t, log.HasEntry(tc.level, "request completed"),
			"status %d should log at %s", tc.status, tc.level)
	}
}

func TestRequestLoggerNamesChildLogger(t *testing.T) {
	log := testutil.NewMockLogger()
	r := newTestRouter(log, http.StatusOK)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))

	entries := log.GetEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "http", entries[0].Logger)
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	log := testutil.NewMockLogger()
	r := newTestRouter(log, http.StatusOK)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestRequestIDHonorsInbound(t *testing.T) {
	log := testutil.NewMockLogger()
	r := newTestRouter(log, http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(HeaderRequestID, "req-abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-abc-123", rec.Header().Get(HeaderRequestID))
}
