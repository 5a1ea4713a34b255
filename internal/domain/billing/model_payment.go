package billing

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusSucceeded  PaymentStatus = "succeeded"
	StatusFailed     PaymentStatus = "failed"
	StatusRefunded   PaymentStatus = "refunded"
)

// Payment is one charge attempt for one attendance row. Retries mutate the
// same row; there is at most one per sessions_students_id.
type Payment struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primaryKey"`
	SessionsStudentsID uuid.UUID     `gorm:"column:sessions_students_id;type:uuid;index"`
	StudentID          uuid.UUID     `gorm:"type:uuid;index"`
	SessionID          uuid.UUID     `gorm:"type:uuid"`
	AmountCents        int64         `gorm:"column:amount_cents"`
	Currency           string        `gorm:"type:varchar(3)"`
	Status             PaymentStatus `gorm:"type:varchar(20);index"`

	StripePaymentIntentID *string `gorm:"column:stripe_payment_intent_id"`
	StripeChargeID        *string `gorm:"column:stripe_charge_id"`

	RetryCount     int        `gorm:"column:retry_count;not null;default:0"`
	LastRetryAt    *time.Time `gorm:"column:last_retry_at"`
	FailureMessage *string    `gorm:"column:failure_message"`

	FeeCents   *int64     `gorm:"column:fee_cents"`
	NetCents   *int64     `gorm:"column:net_cents"`
	ReceiptURL *string    `gorm:"column:receipt_url"`
	ChargedAt  *time.Time `gorm:"column:charged_at"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Payment) TableName() string { return "payments" }

// RetriesExhausted reports whether the retry engine will leave this payment alone.
func (p Payment) RetriesExhausted() bool {
	return p.RetryCount >= MaxRetryAttempts
}

// PaymentUpdate is a partial update; nil fields are left untouched.
type PaymentUpdate struct {
	Status                *PaymentStatus
	StripePaymentIntentID *string
	StripeChargeID        *string
	RetryCount            *int
	LastRetryAt           *time.Time
	FailureMessage        *string
	FeeCents              *int64
	NetCents              *int64
	ReceiptURL            *string
	ChargedAt             *time.Time
}

// Columns maps the set fields onto payments column names.
func (u PaymentUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.StripePaymentIntentID != nil {
		cols["stripe_payment_intent_id"] = *u.StripePaymentIntentID
	}
	if u.StripeChargeID != nil {
		cols["stripe_charge_id"] = *u.StripeChargeID
	}
	if u.RetryCount != nil {
		cols["retry_count"] = *u.RetryCount
	}
	if u.LastRetryAt != nil {
		cols["last_retry_at"] = *u.LastRetryAt
	}
	if u.FailureMessage != nil {
		cols["failure_message"] = *u.FailureMessage
	}
	if u.FeeCents != nil {
		cols["fee_cents"] = *u.FeeCents
	}
	if u.NetCents != nil {
		cols["net_cents"] = *u.NetCents
	}
	if u.ReceiptURL != nil {
		cols["receipt_url"] = *u.ReceiptURL
	}
	if u.ChargedAt != nil {
		cols["charged_at"] = *u.ChargedAt
	}
	return cols
}

// Apply copies the set fields onto p.
func (u PaymentUpdate) Apply(p *Payment) {
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.StripePaymentIntentID != nil {
		p.StripePaymentIntentID = u.StripePaymentIntentID
	}
	if u.StripeChargeID != nil {
		p.StripeChargeID = u.StripeChargeID
	}
	if u.RetryCount != nil {
		p.RetryCount = *u.RetryCount
	}
	if u.LastRetryAt != nil {
		p.LastRetryAt = u.LastRetryAt
	}
	if u.FailureMessage != nil {
		p.FailureMessage = u.FailureMessage
	}
	if u.FeeCents != nil {
		p.FeeCents = u.FeeCents
	}
	if u.NetCents != nil {
		p.NetCents = u.NetCents
	}
	if u.ReceiptURL != nil {
		p.ReceiptURL = u.ReceiptURL
	}
	if u.ChargedAt != nil {
		p.ChargedAt = u.ChargedAt
	}
}
