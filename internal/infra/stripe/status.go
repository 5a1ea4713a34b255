package stripe

import (
	"strings"

	"tutor-billing/internal/domain/billing"
)

// PaymentStatusFromIntent maps a PaymentIntent status onto the payments
// ledger. Anything that needs the payer present counts as failed for an
// off-session charge.
func PaymentStatusFromIntent(s string) billing.PaymentStatus {
	switch strings.TrimSpace(s) {
	case "succeeded":
		return billing.StatusSucceeded
	case "processing", "requires_capture":
		return billing.StatusProcessing
	case "requires_payment_method", "requires_action", "requires_confirmation", "canceled":
		return billing.StatusFailed
	default:
		return billing.StatusPending
	}
}
