package api

import (
	"github.com/gin-gonic/gin"

	"github.com/paintpro/appointments/internal/apperrors"
)

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// writeError renders err as {error, code}. Causes are never shown; internal errors carry only
// their generic message.
func writeError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() >= 500 {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(appErr.StatusCode(), errorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}
