package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(ErrCodeConfigBadGazetteer, "gazetteer must be a YAML list")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeConfigBadGazetteer, err.Code)
	assert.Contains(t, err.Error(), "CONFIG_002")
	assert.Contains(t, err.Error(), "gazetteer must be a YAML list")
	assert.NotEmpty(t, err.Stack)
}

func TestErrorFormatWithDetail(t *testing.T) {
	err := New(ErrCodeConfigUnreadableDir, "cannot read gazetteer directory").
		WithDetail("path=/etc/sfner/gazetteers")
	assert.Equal(t, "[CONFIG_003] cannot read gazetteer directory: path=/etc/sfner/gazetteers", err.Error())
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk read failed")
	err := Wrap(cause, ErrCodeConfigUnreadableDir, "loading gazetteers")
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestWrapUnknownCodePreservesOriginal(t *testing.T) {
	inner := New(ErrCodeConfigTypeConflict, "type conflict")
	outer := Wrap(inner, CodeUnknown, "building store")
	assert.Equal(t, ErrCodeConfigTypeConflict, outer.Code)
}

func TestIsConfiguration(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"threshold", New(ErrCodeConfigInvalidThreshold, "fuzzy_threshold out of range"), true},
		{"bad gazetteer wrapped", fmt.Errorf("outer: %w", New(ErrCodeConfigBadGazetteer, "bad")), true},
		{"not config", New(ErrCodeDatabaseError, "db down"), false},
		{"plain error", stderrors.New("plain"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConfiguration(tt.err))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("annotation missing")))
	assert.True(t, IsNotFound(New(ErrCodeAnnotationNotFound, "no such annotation")))
	assert.False(t, IsNotFound(New(ErrCodeConflict, "duplicate")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeCacheError, GetCode(New(ErrCodeCacheError, "cache down")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrCodeConfigInvalidThreshold.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, ErrCodeAnnotationNotFound.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("NO_SUCH").HTTPStatus())
}
