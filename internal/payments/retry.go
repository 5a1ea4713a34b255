package payments

import (
	"context"

	"tutor-billing/internal/domain/billing"
	stripeinfra "tutor-billing/internal/infra/stripe"

	"go.uber.org/zap"
)

// Retry re-attempts failed payments on the backoff schedule until the cap.
type Retry struct {
	Payments PaymentRepository
	Profiles ProfileRepository
	Gateway  Gateway
	Notifier FailureNotifier // optional
	Now      Clock
	Log      *zap.Logger
}

// Run stops without touching the remaining payments on a gateway
// configuration error.
func (r *Retry) Run(ctx context.Context) (BatchResult, error) {
	var out BatchResult

	due, err := r.Payments.ListRetryable(ctx)
	if err != nil {
		return out, err
	}

	for _, p := range due {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res := r.retryOne(ctx, p)
		if billing.KindOf(res.Err) == billing.KindConfig {
			return out, res.Err
		}
		if res.Err != nil {
			r.Log.Warn("billing retry attempt failed",
				zap.String("payment_id", p.ID.String()),
				zap.Int("retry_count", p.RetryCount),
				zap.String("outcome", string(res.Outcome)),
				zap.Error(res.Err))
		}
		out.add(res)
	}

	r.Log.Info("billing retry finished",
		zap.Int("candidates", len(due)),
		zap.Int("attempted", out.Attempted()),
		zap.Int("declined", out.Count(RowDeclined)),
		zap.Int("skipped", out.Skipped()),
		zap.Int("errors", out.Count(RowError)))
	return out, nil
}

func (r *Retry) retryOne(ctx context.Context, p billing.Payment) RowResult {
	res := RowResult{AttendanceID: p.SessionsStudentsID, PaymentID: p.ID}
	now := r.Now()

	if !billing.RetryDue(p, now) {
		res.Outcome = RowSkippedNotDue
		return res
	}

	profile, err := r.Profiles.ByStudent(ctx, p.StudentID)
	if err != nil {
		res.Outcome, res.Err = RowError, err
		return res
	}
	if !profile.Chargeable() {
		res.Outcome = RowSkippedNoCard
		return res
	}

	attempt := p.RetryCount + 1
	intent, chargeErr := r.Gateway.ChargeOffSession(ctx, stripeinfra.ChargeParams{
		CustomerID:         *profile.StripeCustomerID,
		PaymentMethodID:    *profile.DefaultPaymentMethodID,
		AmountCents:        p.AmountCents,
		Currency:           p.Currency,
		IdempotencyKey:     billing.RetryIdempotencyKey(p.ID, attempt),
		PaymentID:          p.ID,
		SessionsStudentsID: p.SessionsStudentsID,
		StudentID:          p.StudentID,
	})

	if billing.KindOf(chargeErr) == billing.KindConfig {
		res.Outcome, res.Err = RowError, chargeErr
		return res
	}

	// the counter advances even on provider errors so the cap is always reached
	upd := chargeUpdate(intent, chargeErr)
	upd.RetryCount = &attempt
	upd.LastRetryAt = &now
	if err := r.Payments.Update(ctx, p.ID, upd); err != nil {
		res.Outcome, res.Err = RowError, err
		return res
	}

	res.Outcome = RowCharged
	if *upd.Status == billing.StatusFailed {
		res.Outcome, res.Err = RowDeclined, chargeErr
		if attempt >= billing.MaxRetryAttempts {
			r.notifyExhausted(ctx, p)
		}
	}
	return res
}

func (r *Retry) notifyExhausted(ctx context.Context, p billing.Payment) {
	if r.Notifier == nil {
		return
	}
	msgID, err := r.Notifier.NotifyFailure(ctx, p.ID)
	if err != nil {
		r.Log.Warn("failure notification not sent",
			zap.String("payment_id", p.ID.String()),
			zap.Error(err))
		return
	}
	r.Log.Info("failure notification queued",
		zap.String("payment_id", p.ID.String()),
		zap.String("message_id", msgID.String()))
}
