package payments

import (
	"context"
	"time"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/sessions"
	stripeinfra "tutor-billing/internal/infra/stripe"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner charges every billable attendance row of tomorrow exactly once.
type Runner struct {
	Attendance AttendanceRepository
	Subsidies  SubsidyRepository
	Profiles   ProfileRepository
	Payments   PaymentRepository
	Settings   SettingsRepository
	Gateway    Gateway
	Currency   string
	Location   *time.Location
	Now        Clock
	Log        *zap.Logger
}

// TomorrowWindow returns [tomorrow 00:00:00, tomorrow 23:59:59] in loc.
func TomorrowWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := now.In(loc).Date()
	start := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	end := time.Date(y, m, d+1, 23, 59, 59, 0, loc)
	return start, end
}

// Run returns an error when the batch cannot start, or stops at the first
// configuration error from the gateway.
func (r *Runner) Run(ctx context.Context) (BatchResult, error) {
	var out BatchResult
	now := r.Now()

	fees, err := r.Settings.FeeSettings(ctx)
	if err != nil {
		return out, err
	}

	from, to := TomorrowWindow(now, r.Location)
	rows, err := r.Attendance.BillableBetween(ctx, from, to)
	if err != nil {
		return out, err
	}

	r.Log.Info("billing runner started",
		zap.Time("window_from", from),
		zap.Time("window_to", to),
		zap.Int("rows", len(rows)))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res := r.chargeRow(ctx, row, fees, now)
		if billing.KindOf(res.Err) == billing.KindConfig {
			return out, res.Err
		}
		if res.Err != nil {
			r.Log.Warn("billing runner row failed",
				zap.String("sessions_students_id", row.ID.String()),
				zap.String("payment_id", res.PaymentID.String()),
				zap.String("outcome", string(res.Outcome)),
				zap.Error(res.Err))
		}
		out.add(res)
	}

	r.Log.Info("billing runner finished",
		zap.Int("created", out.Attempted()),
		zap.Int("declined", out.Count(RowDeclined)),
		zap.Int("skipped", out.Skipped()),
		zap.Int("errors", out.Count(RowError)))
	return out, nil
}

func (r *Runner) chargeRow(ctx context.Context, row sessions.Attendance, fees billing.FeeSettings, now time.Time) RowResult {
	res := RowResult{AttendanceID: row.ID}
	subject := row.Session.Subject

	subsidy, err := r.Subsidies.Active(ctx, row.StudentID, subject.ID, subject.BillingType, now)
	if err != nil {
		res.Outcome, res.Err = RowError, err
		return res
	}
	net := billing.NetPrice(subject.SessionFeeCents, subsidy)
	if net <= 0 {
		res.Outcome = RowSkippedZero
		return res
	}

	profile, err := r.Profiles.ByStudent(ctx, row.StudentID)
	if err != nil {
		res.Outcome, res.Err = RowError, err
		return res
	}
	if !profile.Chargeable() {
		res.Outcome = RowSkippedNoCard
		return res
	}

	gross := fees.Gross(net, profile.Country())

	exists, err := r.Payments.ExistsForAttendance(ctx, row.ID)
	if err != nil {
		res.Outcome, res.Err = RowError, err
		return res
	}
	if exists {
		res.Outcome = RowSkippedExisting
		return res
	}

	payment := billing.Payment{
		ID:                 uuid.New(),
		SessionsStudentsID: row.ID,
		StudentID:          row.StudentID,
		SessionID:          row.SessionID,
		AmountCents:        gross,
		Currency:           r.Currency,
		Status:             billing.StatusPending,
	}
	if err := r.Payments.Create(ctx, &payment); err != nil {
		res.Outcome, res.Err = RowError, err
		return res
	}
	res.PaymentID = payment.ID

	intent, chargeErr := r.Gateway.ChargeOffSession(ctx, stripeinfra.ChargeParams{
		CustomerID:         *profile.StripeCustomerID,
		PaymentMethodID:    *profile.DefaultPaymentMethodID,
		AmountCents:        gross,
		Currency:           r.Currency,
		IdempotencyKey:     billing.InitialIdempotencyKey(payment.ID),
		PaymentID:          payment.ID,
		SessionsStudentsID: row.ID,
		StudentID:          row.StudentID,
	})

	if billing.KindOf(chargeErr) == billing.KindConfig {
		// nothing was sent to the provider; leave no trace of the attempt
		if err := r.Payments.Delete(ctx, payment.ID); err != nil {
			r.Log.Error("pending payment not removed",
				zap.String("payment_id", payment.ID.String()),
				zap.Error(err))
		}
		res.PaymentID = uuid.Nil
		res.Outcome, res.Err = RowError, chargeErr
		return res
	}

	upd := chargeUpdate(intent, chargeErr)
	if err := r.Payments.Update(ctx, payment.ID, upd); err != nil {
		res.Outcome, res.Err = RowError, err
		return res
	}

	res.Outcome = RowCharged
	if *upd.Status == billing.StatusFailed {
		res.Outcome, res.Err = RowDeclined, chargeErr
	}
	return res
}

// chargeUpdate turns a charge response into the payment columns to write.
func chargeUpdate(intent *stripeinfra.Intent, chargeErr error) billing.PaymentUpdate {
	var upd billing.PaymentUpdate
	if intent != nil && intent.ID != "" {
		upd.StripePaymentIntentID = strPtr(intent.ID)
	}
	if intent != nil && intent.LatestChargeID != "" {
		upd.StripeChargeID = strPtr(intent.LatestChargeID)
	}

	if chargeErr != nil {
		upd.Status = statusPtr(billing.StatusFailed)
		upd.FailureMessage = strPtr(billing.Message(chargeErr))
		return upd
	}

	if intent == nil {
		upd.Status = statusPtr(billing.StatusPending)
		return upd
	}
	status := stripeinfra.PaymentStatusFromIntent(intent.Status)
	upd.Status = &status
	if status == billing.StatusFailed && intent.FailureMessage != "" {
		upd.FailureMessage = strPtr(intent.FailureMessage)
	}
	return upd
}
