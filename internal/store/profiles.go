package store

import (
	"context"
	"fmt"
	"time"

	"tutor-billing/internal/domain/billing"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Profiles struct {
	db *gorm.DB
}

// ByStudent returns nil when the student has no billing profile yet.
func (r *Profiles) ByStudent(ctx context.Context, studentID uuid.UUID) (*billing.Profile, error) {
	var p billing.Profile
	ok, err := optional(r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&p).Error)
	if err != nil {
		return nil, fmt.Errorf("failed to load billing profile: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SaveCustomer inserts or updates the profile's provider customer id.
func (r *Profiles) SaveCustomer(ctx context.Context, studentID uuid.UUID, customerID string) error {
	p := billing.Profile{
		ID:               uuid.New(),
		StudentID:        studentID,
		StripeCustomerID: &customerID,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stripe_customer_id", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("failed to save stripe customer: %w", err)
	}
	return nil
}

// SaveVerifiedCard records the verified card on the profile owning customerID.
func (r *Profiles) SaveVerifiedCard(ctx context.Context, customerID, paymentMethodID string, card billing.Card, verifiedAt time.Time) (int64, error) {
	updates := map[string]interface{}{
		"default_payment_method_id": paymentMethodID,
		"verified_at":               verifiedAt,
	}
	if card.Brand != "" {
		updates["card_brand"] = card.Brand
	}
	if card.Last4 != "" {
		updates["card_last4"] = card.Last4
	}
	if card.Country != "" {
		updates["card_country"] = card.Country
	}

	res := r.db.WithContext(ctx).
		Model(&billing.Profile{}).
		Where("stripe_customer_id = ?", customerID).
		Updates(updates)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to save verified card: %w", res.Error)
	}
	return res.RowsAffected, nil
}
