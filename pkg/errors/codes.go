package errors

import (
	"net/http"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every layer.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeDatabaseError      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_010"
	ErrCodeNotImplemented     ErrorCode = "COMMON_011"

	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

// Configuration error codes.  All of them are raised synchronously during
// extractor construction; none may surface from the matching path.
const (
	ErrCodeConfigInvalidThreshold ErrorCode = "CONFIG_001"
	ErrCodeConfigBadGazetteer     ErrorCode = "CONFIG_002"
	ErrCodeConfigUnreadableDir    ErrorCode = "CONFIG_003"
	ErrCodeConfigTypeConflict     ErrorCode = "CONFIG_004"
	ErrCodeConfigInvalid          ErrorCode = "CONFIG_005"
)

// Gazetteer store error codes.
const (
	ErrCodeStoreFrozen   ErrorCode = "STORE_001"
	ErrCodeStoreNotBuilt ErrorCode = "STORE_002"
)

// Annotation persistence / pipeline error codes.
const (
	ErrCodeAnnotationNotFound ErrorCode = "ANN_001"
	ErrCodeAnnotationConflict ErrorCode = "ANN_002"
	ErrCodePublishFailed      ErrorCode = "ANN_003"
)

// Aliases kept for call-site brevity.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeConfigInvalidThreshold: http.StatusBadRequest,
	ErrCodeConfigBadGazetteer:     http.StatusBadRequest,
	ErrCodeConfigUnreadableDir:    http.StatusBadRequest,
	ErrCodeConfigTypeConflict:     http.StatusConflict,
	ErrCodeConfigInvalid:          http.StatusBadRequest,

	ErrCodeStoreFrozen:   http.StatusConflict,
	ErrCodeStoreNotBuilt: http.StatusInternalServerError,

	ErrCodeAnnotationNotFound: http.StatusNotFound,
	ErrCodeAnnotationConflict: http.StatusConflict,
	ErrCodePublishFailed:      http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status for a code, defaulting to 500.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := ErrorCodeHTTPStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// configCodes is the set of codes that classify as construction-time
// configuration failures.
var configCodes = map[ErrorCode]struct{}{
	ErrCodeConfigInvalidThreshold: {},
	ErrCodeConfigBadGazetteer:     {},
	ErrCodeConfigUnreadableDir:    {},
	ErrCodeConfigTypeConflict:     {},
	ErrCodeConfigInvalid:          {},
}
