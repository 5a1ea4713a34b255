package billing

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the per-student billing record (students_billing).
type Profile struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentID              uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	StripeCustomerID       *string   `gorm:"column:stripe_customer_id;uniqueIndex"`
	DefaultPaymentMethodID *string   `gorm:"column:default_payment_method_id"`
	CardBrand              *string
	CardLast4              *string `gorm:"column:card_last4"`
	CardCountry            *string
	VerifiedAt             *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Profile) TableName() string { return "students_billing" }

// Chargeable reports whether an off-session charge may be attempted.
func (p *Profile) Chargeable() bool {
	return p != nil &&
		p.StripeCustomerID != nil && *p.StripeCustomerID != "" &&
		p.DefaultPaymentMethodID != nil && *p.DefaultPaymentMethodID != ""
}

func (p *Profile) Country() string {
	if p == nil || p.CardCountry == nil {
		return ""
	}
	return *p.CardCountry
}

// Card is what the provider tells us about a saved payment method.
type Card struct {
	Brand   string
	Last4   string
	Country string
}
