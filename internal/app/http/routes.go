package routes

import (
	"net/http"

	"tutor-billing/internal/api/billingjobs"
	"tutor-billing/internal/api/cardsetup"
	"tutor-billing/internal/api/sms"
	stripewebhooks "tutor-billing/internal/api/stripewebhook"
	"tutor-billing/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	CardSetup *cardsetup.Handler
	Jobs      *billingjobs.Handler
	Stripe    *stripewebhooks.Handler
	SMS       *sms.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider callbacks authenticate by signature
	r.POST("/stripe-webhooks", h.Stripe.StripeWebhook)
	r.POST("/twilio-inbound", h.SMS.Inbound)
	r.POST("/twilio-status", h.SMS.Status)

	// Authenticated users
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(jwtSecret), middleware.SanitizeJSON())
	auth.POST("/card-setup", h.CardSetup.Create)

	// Schedulers and internal callers
	service := r.Group("/")
	service.Use(middleware.AuthMiddleware(jwtSecret), middleware.RequireRole(middleware.ServiceRole), middleware.SanitizeJSON())
	service.POST("/billing-runner", h.Jobs.RunCharges)
	service.POST("/billing-retry", h.Jobs.RunRetries)
	service.POST("/billing-notify-fail", h.SMS.NotifyFail)
	service.POST("/send-sms", h.SMS.SendSMS)
}
