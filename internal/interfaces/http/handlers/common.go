// Package handlers implements the HTTP endpoints of the API server.
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError writes err as a structured response, mapping the error code
// to an HTTP status.  Internal details are masked.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := apperrors.GetCode(err)
	status := code.HTTPStatus()

	message := "internal server error"
	if status < 500 {
		var app *apperrors.AppError
		if errors.As(err, &app) {
			message = app.Message
		} else {
			message = err.Error()
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    code.String(),
		Message: message,
	})
}
