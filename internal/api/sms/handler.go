package sms

import (
	"context"
	"net/http"
	"net/url"

	"tutor-billing/internal/api/respond"
	"tutor-billing/internal/notify"
	twilioinfra "tutor-billing/internal/infra/twilio"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	NotifyFailure(ctx context.Context, paymentID uuid.UUID) (uuid.UUID, error)
	Send(ctx context.Context, messageID uuid.UUID) (string, error)
	Receive(ctx context.Context, in notify.Inbound) error
	ApplyStatus(ctx context.Context, r notify.StatusReport) error
}

type Validator interface {
	Validate(fullURL string, form url.Values, signature string) error
}

type Handler struct {
	Service   Service
	Validator Validator
	// PublicBaseURL is the externally visible origin Twilio signs against.
	PublicBaseURL string
	Log           *zap.Logger
}

type notifyRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
}

type sendRequest struct {
	MessageID string `json:"messageId" binding:"required"`
}

// NotifyFail handles POST /billing-notify-fail.
func (h *Handler) NotifyFail(c *gin.Context) {
	var body notifyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paymentId is required"})
		return
	}
	paymentID, err := uuid.Parse(body.PaymentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paymentId must be a uuid"})
		return
	}

	msgID, err := h.Service.NotifyFailure(c.Request.Context(), paymentID)
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "messageId": msgID})
}

// SendSMS handles POST /send-sms.
func (h *Handler) SendSMS(c *gin.Context) {
	var body sendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messageId is required"})
		return
	}
	messageID, err := uuid.Parse(body.MessageID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messageId must be a uuid"})
		return
	}

	sid, err := h.Service.Send(c.Request.Context(), messageID)
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sid": sid})
}

// Inbound handles POST /twilio-inbound.
func (h *Handler) Inbound(c *gin.Context) {
	form, ok := h.verifiedForm(c)
	if !ok {
		return
	}
	err := h.Service.Receive(c.Request.Context(), notify.Inbound{
		MessageSID: form.Get("MessageSid"),
		From:       form.Get("From"),
		To:         form.Get("To"),
		Body:       form.Get("Body"),
	})
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Status handles POST /twilio-status.
func (h *Handler) Status(c *gin.Context) {
	form, ok := h.verifiedForm(c)
	if !ok {
		return
	}
	status := form.Get("MessageStatus")
	if status == "" {
		status = form.Get("SmsStatus")
	}
	err := h.Service.ApplyStatus(c.Request.Context(), notify.StatusReport{
		MessageSID:    form.Get("MessageSid"),
		MessageStatus: status,
		ErrorCode:     form.Get("ErrorCode"),
		ErrorMessage:  form.Get("ErrorMessage"),
	})
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// verifiedForm parses the form body and checks it against the signature
// computed over the public URL of this route.
func (h *Handler) verifiedForm(c *gin.Context) (url.Values, bool) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed form body"})
		return nil, false
	}
	form := c.Request.PostForm

	fullURL := h.PublicBaseURL + c.Request.URL.Path
	if err := h.Validator.Validate(fullURL, form, c.GetHeader(twilioinfra.SignatureHeader)); err != nil {
		respond.Error(c, h.Log, err)
		return nil, false
	}
	return form, true
}
