package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "cadence/internal/errors"
	"cadence/internal/logger"
)

func errorBody(code, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

// ErrorHandler converts errors attached to the Gin context into the
// JSON error envelope. AppErrors keep their code and status; anything
// else is logged in full and surfaces as a generic internal error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Internal != nil {
				logger.Get().Errorw("request failed",
					"code", appErr.Code,
					"internal", appErr.Internal.Error(),
					"path", c.Request.URL.Path,
				)
			}
			c.JSON(appErr.StatusCode, errorBody(appErr.Code, appErr.Message))
			return
		}

		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		internal := apperrors.ErrInternalServer
		c.JSON(internal.StatusCode, errorBody(internal.Code, internal.Message))
	}
}
