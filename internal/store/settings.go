package store

import (
	"context"
	"fmt"

	"tutor-billing/internal/domain/billing"

	"gorm.io/gorm"
)

type Settings struct {
	db *gorm.DB
}

func (r *Settings) All(ctx context.Context) ([]billing.Setting, error) {
	var rows []billing.Setting
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load billing settings: %w", err)
	}
	return rows, nil
}

// FeeSettings reads the table fresh on every call.
func (r *Settings) FeeSettings(ctx context.Context) (billing.FeeSettings, error) {
	rows, err := r.All(ctx)
	if err != nil {
		return billing.FeeSettings{}, err
	}
	return billing.ParseFeeSettings(rows)
}
