package billingjobs

import (
	"context"
	"net/http"

	"tutor-billing/internal/api/respond"
	"tutor-billing/internal/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Job interface {
	Run(ctx context.Context) (payments.BatchResult, error)
}

type Handler struct {
	Runner Job
	Retry  Job
	Log    *zap.Logger
}

// RunCharges handles POST /billing-runner.
func (h *Handler) RunCharges(c *gin.Context) {
	res, err := h.Runner.Run(c.Request.Context())
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "created": res.Attempted()})
}

// RunRetries handles POST /billing-retry.
func (h *Handler) RunRetries(c *gin.Context) {
	res, err := h.Retry.Run(c.Request.Context())
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "attempted": res.Attempted()})
}
