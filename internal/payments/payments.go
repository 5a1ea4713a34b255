// Package payments implements card setup, the nightly charge runner, the
// retry engine and webhook reconciliation.
package payments

import (
	"context"
	"time"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/sessions"
	"tutor-billing/internal/domain/students"
	stripeinfra "tutor-billing/internal/infra/stripe"

	"github.com/google/uuid"
)

// Gateway is the payment provider surface used by this package.
type Gateway interface {
	CreateCustomer(ctx context.Context, p stripeinfra.CustomerParams) (string, error)
	CreateVerificationIntent(ctx context.Context, p stripeinfra.VerificationParams) (*stripeinfra.Intent, error)
	ChargeOffSession(ctx context.Context, p stripeinfra.ChargeParams) (*stripeinfra.Intent, error)
	Settlement(ctx context.Context, chargeID string) (*stripeinfra.Settlement, error)
	RefundIntent(ctx context.Context, intentID string) error
	PaymentMethodCard(ctx context.Context, paymentMethodID string) (*billing.Card, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *billing.Payment) error
	Get(ctx context.Context, id uuid.UUID) (*billing.Payment, error)
	ExistsForAttendance(ctx context.Context, attendanceID uuid.UUID) (bool, error)
	ListRetryable(ctx context.Context) ([]billing.Payment, error)
	Update(ctx context.Context, id uuid.UUID, upd billing.PaymentUpdate) error
	UpdateByAttendance(ctx context.Context, attendanceID uuid.UUID, upd billing.PaymentUpdate) (int64, error)
	FailByAttendance(ctx context.Context, attendanceID uuid.UUID, message string) (int64, error)
	Fail(ctx context.Context, id uuid.UUID, message string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProfileRepository interface {
	ByStudent(ctx context.Context, studentID uuid.UUID) (*billing.Profile, error)
	SaveCustomer(ctx context.Context, studentID uuid.UUID, customerID string) error
	SaveVerifiedCard(ctx context.Context, customerID, paymentMethodID string, card billing.Card, verifiedAt time.Time) (int64, error)
}

type SettingsRepository interface {
	FeeSettings(ctx context.Context) (billing.FeeSettings, error)
}

type AttendanceRepository interface {
	BillableBetween(ctx context.Context, from, to time.Time) ([]sessions.Attendance, error)
}

type SubsidyRepository interface {
	Active(ctx context.Context, studentID, subjectID uuid.UUID, billingType string, at time.Time) (*billing.Subsidy, error)
}

type StudentRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*students.Student, error)
	PrimaryParent(ctx context.Context, studentID uuid.UUID) (*students.ParentStudent, error)
}

// FailureNotifier is told about payments that ran out of retries.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, paymentID uuid.UUID) (uuid.UUID, error)
}

// Clock is overridden in tests.
type Clock func() time.Time

func strPtr(s string) *string { return &s }

func statusPtr(s billing.PaymentStatus) *billing.PaymentStatus { return &s }
