package payments

import (
	"context"

	"tutor-billing/internal/domain/billing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reconciler applies verified PaymentIntent events to profiles and payments.
type Reconciler struct {
	Payments PaymentRepository
	Profiles ProfileRepository
	Gateway  Gateway
	Now      Clock
	Log      *zap.Logger
}

func (r *Reconciler) Handle(ctx context.Context, ev billing.IntentEvent) error {
	switch {
	case ev.Outcome == billing.OutcomeSucceeded && ev.Subtype == billing.SubtypeVerification:
		return r.verificationSucceeded(ctx, ev)
	case ev.Outcome == billing.OutcomeSucceeded && ev.Subtype == billing.SubtypeSessionCharge:
		return r.chargeSucceeded(ctx, ev)
	case ev.Outcome == billing.OutcomeFailed && ev.Subtype == billing.SubtypeSessionCharge:
		return r.chargeFailed(ctx, ev)
	default:
		r.Log.Debug("intent event ignored",
			zap.String("intent_id", ev.IntentID),
			zap.String("subtype", string(ev.Subtype)))
		return nil
	}
}

func (r *Reconciler) verificationSucceeded(ctx context.Context, ev billing.IntentEvent) error {
	if ev.CustomerID == "" || ev.PaymentMethodID == "" {
		return billing.Validation("webhook.verification", "intent missing customer or payment method")
	}

	// refund failure must not block saving the card
	if err := r.Gateway.RefundIntent(ctx, ev.IntentID); err != nil {
		r.Log.Warn("verification refund failed",
			zap.String("intent_id", ev.IntentID),
			zap.Error(err))
	}

	var card billing.Card
	fetched, err := r.Gateway.PaymentMethodCard(ctx, ev.PaymentMethodID)
	if err != nil {
		r.Log.Warn("payment method lookup failed",
			zap.String("payment_method_id", ev.PaymentMethodID),
			zap.Error(err))
	} else if fetched != nil {
		card = *fetched
	}

	n, err := r.Profiles.SaveVerifiedCard(ctx, ev.CustomerID, ev.PaymentMethodID, card, r.Now())
	if err != nil {
		return err
	}
	if n == 0 {
		r.Log.Warn("no billing profile for customer", zap.String("customer_id", ev.CustomerID))
	}
	return nil
}

func (r *Reconciler) chargeSucceeded(ctx context.Context, ev billing.IntentEvent) error {
	now := r.Now()
	upd := billing.PaymentUpdate{
		Status:    statusPtr(billing.StatusSucceeded),
		ChargedAt: &now,
	}
	if ev.IntentID != "" {
		upd.StripePaymentIntentID = strPtr(ev.IntentID)
	}

	if ev.LatestChargeID != "" {
		upd.StripeChargeID = strPtr(ev.LatestChargeID)
		s, err := r.Gateway.Settlement(ctx, ev.LatestChargeID)
		if err != nil {
			r.Log.Warn("settlement lookup failed",
				zap.String("charge_id", ev.LatestChargeID),
				zap.Error(err))
		} else {
			upd.FeeCents = &s.FeeCents
			upd.NetCents = &s.NetCents
			if s.ReceiptURL != "" {
				upd.ReceiptURL = strPtr(s.ReceiptURL)
			}
		}
	}

	return r.applyToPayment(ctx, ev, upd)
}

func (r *Reconciler) chargeFailed(ctx context.Context, ev billing.IntentEvent) error {
	msg := ev.FailureMessage
	if msg == "" {
		msg = "payment failed"
	}

	var (
		n   int64
		err error
	)
	switch {
	case ev.SessionsStudentsID != uuid.Nil:
		n, err = r.Payments.FailByAttendance(ctx, ev.SessionsStudentsID, msg)
	case ev.PaymentID != uuid.Nil:
		n, err = r.Payments.Fail(ctx, ev.PaymentID, msg)
	default:
		return billing.Validation("webhook.payment", "intent metadata carries no payment reference")
	}
	if err != nil {
		return err
	}
	if n == 0 {
		r.Log.Warn("no open payment for failed intent",
			zap.String("intent_id", ev.IntentID),
			zap.String("sessions_students_id", ev.SessionsStudentsID.String()),
			zap.String("payment_id", ev.PaymentID.String()))
	}
	return nil
}

// applyToPayment matches by attendance row, falling back to the payment id.
func (r *Reconciler) applyToPayment(ctx context.Context, ev billing.IntentEvent, upd billing.PaymentUpdate) error {
	if ev.SessionsStudentsID != uuid.Nil {
		n, err := r.Payments.UpdateByAttendance(ctx, ev.SessionsStudentsID, upd)
		if err != nil {
			return err
		}
		if n == 0 {
			r.Log.Warn("no payment for attendance row",
				zap.String("intent_id", ev.IntentID),
				zap.String("sessions_students_id", ev.SessionsStudentsID.String()))
		}
		return nil
	}
	if ev.PaymentID != uuid.Nil {
		return r.Payments.Update(ctx, ev.PaymentID, upd)
	}
	return billing.Validation("webhook.payment", "intent metadata carries no payment reference")
}
