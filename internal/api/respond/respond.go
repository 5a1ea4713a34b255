// Package respond maps service errors onto JSON error responses.
package respond

import (
	"net/http"

	"tutor-billing/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Status(err error) int {
	switch billing.KindOf(err) {
	case billing.KindValidation:
		return http.StatusBadRequest
	case billing.KindSignature:
		return http.StatusUnauthorized
	case billing.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes {error} with the status for err. Server-side errors are logged
// and internal details are not echoed.
func Error(c *gin.Context, log *zap.Logger, err error) {
	status := Status(err)
	msg := billing.Message(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("kind", billing.KindOf(err).String()),
			zap.Error(err))
		if billing.KindOf(err) == billing.KindInternal {
			msg = "internal error"
		}
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}
