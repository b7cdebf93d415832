package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/medbook/booking-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Code    errors.ErrorCode `json:"code,omitempty"`
	Data    interface{}      `json:"data,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithMessage sends a success response with a human-readable message
func RespondWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondWithError sends an error response. Business-rule codes map to 400,
// NotFound to 404, Conflict to 409, everything unrecognized to 500 without
// internal detail.
// Non-recoverable errors are logged here so infrastructure failures show up
// even when the handler does nothing beyond rendering them.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}

	if !appErr.Recoverable() {
		log.Error().
			Err(appErr).
			Int("code", int(appErr.Code)).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}

	c.JSON(statusFor(appErr.Code), Response{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Code,
	})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrConflict:
		return http.StatusConflict
	case errors.ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
