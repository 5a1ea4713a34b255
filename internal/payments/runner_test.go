package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/sessions"
	stripeinfra "tutor-billing/internal/infra/stripe"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func attendanceAt(studentID uuid.UUID, subject sessions.Subject, startsAt time.Time) sessions.Attendance {
	sessionID := uuid.New()
	return sessions.Attendance{
		ID:        uuid.New(),
		SessionID: sessionID,
		StudentID: studentID,
		Session: sessions.Session{
			ID:        sessionID,
			SubjectID: subject.ID,
			Subject:   subject,
			StartsAt:  startsAt,
		},
	}
}

func forAttendance(id uuid.UUID) interface{} {
	return mock.MatchedBy(func(p stripeinfra.ChargeParams) bool { return p.SessionsStudentsID == id })
}

func TestTomorrowWindow(t *testing.T) {
	sydney := time.FixedZone("AEST", 10*60*60)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) // 01:00 on the 11th in Sydney

	from, to := TomorrowWindow(now, sydney)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, sydney), from)
	assert.Equal(t, time.Date(2026, 3, 12, 23, 59, 59, 0, sydney), to)
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	maths := sessions.Subject{ID: uuid.New(), Name: "Maths", SessionFeeCents: 5000, BillingType: "per_session"}
	free := sessions.Subject{ID: uuid.New(), Name: "Trial", SessionFeeCents: 0, BillingType: "per_session"}

	domestic, international, absent, noCard, trial := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()

	charged := attendanceAt(domestic, maths, tomorrow)
	declined := attendanceAt(international, maths, tomorrow.Add(8*time.Hour))
	absence := attendanceAt(absent, maths, tomorrow)
	absence.PlannedAbsence = true
	missingCard := attendanceAt(noCard, maths, tomorrow)
	zero := attendanceAt(trial, free, tomorrow)
	later := attendanceAt(domestic, maths, tomorrow.Add(48*time.Hour))
	boundary := attendanceAt(domestic, maths, time.Date(2026, 3, 11, 23, 59, 59, 0, time.UTC))

	payments := newMemPayments()
	gw := new(mockGateway)

	r := &Runner{
		Attendance: &memAttendance{rows: []sessions.Attendance{charged, declined, absence, missingCard, zero, later, boundary}},
		Subsidies: &memSubsidies{rows: []billing.Subsidy{{
			StudentID:     international,
			SubjectID:     maths.ID,
			BillingType:   "per_session",
			PriceCents:    3000,
			EffectiveFrom: now.Add(-30 * 24 * time.Hour),
		}}},
		Profiles: newMemProfiles(
			chargeableProfile(domestic, "AU"),
			chargeableProfile(international, "US"),
			chargeableProfile(absent, "AU"),
			chargeableProfile(trial, "AU"),
		),
		Payments: payments,
		Settings: staticSettings{fees: billing.DefaultFeeSettings()},
		Gateway:  gw,
		Currency: "aud",
		Location: time.UTC,
		Now:      fixedClock(now),
		Log:      zap.NewNop(),
	}

	gw.On("ChargeOffSession", ctx, forAttendance(charged.ID)).
		Return(&stripeinfra.Intent{ID: "pi_ok", Status: "succeeded", LatestChargeID: "ch_ok"}, nil).Once()
	gw.On("ChargeOffSession", ctx, forAttendance(boundary.ID)).
		Return(&stripeinfra.Intent{ID: "pi_edge", Status: "processing"}, nil).Once()
	gw.On("ChargeOffSession", ctx, forAttendance(declined.ID)).
		Return(&stripeinfra.Intent{ID: "pi_declined", Status: "requires_payment_method"},
			billing.Provider("stripe.ChargeOffSession", errors.New("Your card was declined."))).Once()

	res, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Attempted())
	assert.Equal(t, 1, res.Count(RowDeclined))
	assert.Equal(t, 1, res.Count(RowSkippedNoCard))
	assert.Equal(t, 1, res.Count(RowSkippedZero))
	gw.AssertExpectations(t)

	byRow := map[uuid.UUID]billing.Payment{}
	for _, p := range payments.all() {
		byRow[p.SessionsStudentsID] = p
	}
	require.Len(t, byRow, 3)
	assert.NotContains(t, byRow, absence.ID)

	ok := byRow[charged.ID]
	assert.Equal(t, int64(5120), ok.AmountCents)
	assert.Equal(t, billing.StatusSucceeded, ok.Status)
	assert.Equal(t, "pi_ok", *ok.StripePaymentIntentID)
	assert.Equal(t, "ch_ok", *ok.StripeChargeID)

	assert.Equal(t, billing.StatusProcessing, byRow[boundary.ID].Status)

	bad := byRow[declined.ID]
	assert.Equal(t, int64(3140), bad.AmountCents)
	assert.Equal(t, billing.StatusFailed, bad.Status)
	assert.Equal(t, "Your card was declined.", *bad.FailureMessage)
	assert.Equal(t, "pi_declined", *bad.StripePaymentIntentID)
	assert.Equal(t, 0, bad.RetryCount)
}

func TestRunner_IdempotencyKeyIsPaymentID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	studentID := uuid.New()
	subject := sessions.Subject{ID: uuid.New(), SessionFeeCents: 5000, BillingType: "per_session"}
	row := attendanceAt(studentID, subject, now.Add(24*time.Hour))

	payments := newMemPayments()
	gw := new(mockGateway)
	var sent stripeinfra.ChargeParams
	gw.On("ChargeOffSession", ctx, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(stripeinfra.ChargeParams) }).
		Return(&stripeinfra.Intent{ID: "pi_1", Status: "succeeded"}, nil).Once()

	r := &Runner{
		Attendance: &memAttendance{rows: []sessions.Attendance{row}},
		Subsidies:  &memSubsidies{},
		Profiles:   newMemProfiles(chargeableProfile(studentID, "AU")),
		Payments:   payments,
		Settings:   staticSettings{fees: billing.DefaultFeeSettings()},
		Gateway:    gw,
		Currency:   "aud",
		Location:   time.UTC,
		Now:        fixedClock(now),
		Log:        zap.NewNop(),
	}

	_, err := r.Run(ctx)
	require.NoError(t, err)

	created := payments.all()
	require.Len(t, created, 1)
	assert.Equal(t, created[0].ID.String(), sent.IdempotencyKey)
	assert.Equal(t, created[0].ID, sent.PaymentID)
	assert.Equal(t, "aud", sent.Currency)
}

func TestRunner_SecondRunCreatesNoDuplicates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	studentID := uuid.New()
	subject := sessions.Subject{ID: uuid.New(), SessionFeeCents: 5000, BillingType: "per_session"}
	row := attendanceAt(studentID, subject, now.Add(20*time.Hour))

	payments := newMemPayments()
	gw := new(mockGateway)
	gw.On("ChargeOffSession", ctx, mock.Anything).
		Return(&stripeinfra.Intent{ID: "pi_1", Status: "succeeded"}, nil).Once()

	r := &Runner{
		Attendance: &memAttendance{rows: []sessions.Attendance{row}},
		Subsidies:  &memSubsidies{},
		Profiles:   newMemProfiles(chargeableProfile(studentID, "AU")),
		Payments:   payments,
		Settings:   staticSettings{fees: billing.DefaultFeeSettings()},
		Gateway:    gw,
		Currency:   "aud",
		Location:   time.UTC,
		Now:        fixedClock(now),
		Log:        zap.NewNop(),
	}

	first, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempted())

	second, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Attempted())
	assert.Equal(t, 1, second.Count(RowSkippedExisting))
	assert.Len(t, payments.all(), 1)
	gw.AssertNumberOfCalls(t, "ChargeOffSession", 1)
}

func TestRunner_SettingsErrorAbortsBatch(t *testing.T) {
	r := &Runner{
		Attendance: &memAttendance{},
		Settings:   staticSettings{err: errors.New("settings unavailable")},
		Location:   time.UTC,
		Now:        fixedClock(time.Now()),
		Log:        zap.NewNop(),
	}

	_, err := r.Run(context.Background())
	assert.ErrorContains(t, err, "settings unavailable")
}

func TestRunner_MissingSecretKeyStopsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	first, second := uuid.New(), uuid.New()
	subject := sessions.Subject{ID: uuid.New(), SessionFeeCents: 5000, BillingType: "per_session"}

	payments := newMemPayments()
	r := &Runner{
		Attendance: &memAttendance{rows: []sessions.Attendance{
			attendanceAt(first, subject, now.Add(20*time.Hour)),
			attendanceAt(second, subject, now.Add(22*time.Hour)),
		}},
		Subsidies: &memSubsidies{},
		Profiles:  newMemProfiles(chargeableProfile(first, "AU"), chargeableProfile(second, "AU")),
		Payments:  payments,
		Settings:  staticSettings{fees: billing.DefaultFeeSettings()},
		Gateway:   stripeinfra.New("", ""),
		Currency:  "aud",
		Location:  time.UTC,
		Now:       fixedClock(now),
		Log:       zap.NewNop(),
	}

	res, err := r.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, billing.KindConfig, billing.KindOf(err))
	assert.Equal(t, 0, res.Attempted())
	assert.Empty(t, payments.all())
}
