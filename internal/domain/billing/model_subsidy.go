package billing

import (
	"time"

	"github.com/google/uuid"
)

// Subsidy overrides the subject's list price for one student.
type Subsidy struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentID      uuid.UUID `gorm:"type:uuid;index:idx_subsidy_scope"`
	SubjectID      uuid.UUID `gorm:"type:uuid;index:idx_subsidy_scope"`
	BillingType    string    `gorm:"index:idx_subsidy_scope"`
	PriceCents     int64     `gorm:"column:price_cents"`
	EffectiveFrom  time.Time
	EffectiveUntil *time.Time

	CreatedAt time.Time
}

func (Subsidy) TableName() string { return "student_subsidies" }

// ActiveAt is true when the subsidy has started and has not yet ended.
func (s Subsidy) ActiveAt(t time.Time) bool {
	if s.EffectiveFrom.After(t) {
		return false
	}
	return s.EffectiveUntil == nil || s.EffectiveUntil.After(t)
}

// NetPrice resolves the business take-home amount for one attendance row.
func NetPrice(listPriceCents int64, subsidy *Subsidy) int64 {
	if subsidy != nil {
		return subsidy.PriceCents
	}
	return listPriceCents
}
