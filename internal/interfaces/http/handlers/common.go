// Package handlers implements the HTTP handlers of the enrichment API.
package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptdeck/promptdeck/pkg/errors"
)

// errorBody is the uniform error envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps an error onto the HTTP status derived from its code and
// writes the standard envelope.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	body := errorBody{
		Code:    string(code),
		Message: errors.DefaultMessageForCode(code),
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Detail = appErr.Detail
	}
	c.JSON(errors.HTTPStatusForCode(code), gin.H{"error": body})
}

// respondBadRequest reports a malformed request body.
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": errorBody{
		Code:    string(errors.ErrCodeBadRequest),
		Message: "invalid request body",
		Detail:  err.Error(),
	}})
}
