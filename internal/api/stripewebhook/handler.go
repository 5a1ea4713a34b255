package stripewebhooks

import (
	"context"
	"io"
	"net/http"

	"tutor-billing/internal/domain/billing"
	stripeinfra "tutor-billing/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Verifier interface {
	VerifyEvent(payload []byte, signature string) (*stripeinfra.Event, error)
}

type Reconciler interface {
	Handle(ctx context.Context, ev billing.IntentEvent) error
}

type Handler struct {
	Verifier   Verifier
	Reconciler Reconciler
	Log        *zap.Logger
}

// StripeWebhook handles POST /stripe-webhooks. Once the signature checks out
// the provider always gets 200 so it does not redeliver.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := readStripeBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := h.Verifier.VerifyEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		switch billing.KindOf(err) {
		case billing.KindConfig:
			h.Log.Error("stripe webhook not configured", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": billing.Message(err)})
		case billing.KindSignature:
			h.Log.Warn("stripe signature verification failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		default:
			h.Log.Warn("stripe event could not be decoded", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event"})
		}
		return
	}

	switch event.Type {
	case stripeinfra.EventIntentSucceeded, stripeinfra.EventIntentFailed:
		if event.Intent == nil {
			break
		}
		if err := h.Reconciler.Handle(c.Request.Context(), *event.Intent); err != nil {
			h.Log.Error("stripe event reconciliation failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.Type),
				zap.String("intent_id", event.Intent.IntentID),
				zap.Error(err))
		}
	default:
		// Acknowledge unknown events to avoid retries
		h.Log.Debug("stripe event ignored", zap.String("event_id", event.ID), zap.String("event_type", event.Type))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
