package middleware

import (
	"errors"
	"net/http"

	"logline-fusion/internal/transport/httpdto"
	fusion_errors "logline-fusion/pkg/errors"
	"logline-fusion/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler maps sentinel errors attached to the gin context onto HTTP
// responses. Projection failures get their own code so operators can tell a
// durable-but-unprojected event apart from a plain server error.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		l.Errorf("request error: %s", err.Error())

		status, code := classify(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, fusion_errors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, fusion_errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, fusion_errors.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, fusion_errors.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, fusion_errors.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, fusion_errors.ErrProjectionFailed):
		return http.StatusInternalServerError, "PROJECTION_FAILED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
