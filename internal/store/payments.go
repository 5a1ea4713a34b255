package store

import (
	"context"
	"fmt"

	"tutor-billing/internal/domain/billing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Payments struct {
	db *gorm.DB
}

func (r *Payments) Create(ctx context.Context, p *billing.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (r *Payments) Get(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var p billing.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound("store.Payments.Get", "payment", err)
	}
	return &p, nil
}

func (r *Payments) ExistsForAttendance(ctx context.Context, attendanceID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Where("sessions_students_id = ?", attendanceID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing payment: %w", err)
	}
	return n > 0, nil
}

// ListRetryable returns failed payments that still have attempts left.
func (r *Payments) ListRetryable(ctx context.Context) ([]billing.Payment, error) {
	var out []billing.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < ?", billing.StatusFailed, billing.MaxRetryAttempts).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list retryable payments: %w", err)
	}
	return out, nil
}

func (r *Payments) Update(ctx context.Context, id uuid.UUID, upd billing.PaymentUpdate) error {
	cols := upd.Columns()
	if len(cols) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&billing.Payment{}).Where("id = ?", id).Updates(cols).Error; err != nil {
		return fmt.Errorf("failed to update payment %s: %w", id, err)
	}
	return nil
}

// UpdateByAttendance updates the payment for one attendance row and reports
// how many rows matched.
func (r *Payments) UpdateByAttendance(ctx context.Context, attendanceID uuid.UUID, upd billing.PaymentUpdate) (int64, error) {
	cols := upd.Columns()
	if len(cols) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Where("sessions_students_id = ?", attendanceID).
		Updates(cols)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update payment for attendance %s: %w", attendanceID, res.Error)
	}
	return res.RowsAffected, nil
}

// FailByAttendance marks the payment failed unless it already succeeded.
func (r *Payments) FailByAttendance(ctx context.Context, attendanceID uuid.UUID, message string) (int64, error) {
	n, err := r.failWhere(ctx, "sessions_students_id = ?", attendanceID, message)
	if err != nil {
		return 0, fmt.Errorf("failed to mark payment failed for attendance %s: %w", attendanceID, err)
	}
	return n, nil
}

// Fail is FailByAttendance keyed by payment id.
func (r *Payments) Fail(ctx context.Context, id uuid.UUID, message string) (int64, error) {
	n, err := r.failWhere(ctx, "id = ?", id, message)
	if err != nil {
		return 0, fmt.Errorf("failed to mark payment %s failed: %w", id, err)
	}
	return n, nil
}

func (r *Payments) failWhere(ctx context.Context, query string, arg interface{}, message string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Where(query, arg).
		Where("status <> ?", billing.StatusSucceeded).
		Updates(map[string]interface{}{
			"status":          billing.StatusFailed,
			"failure_message": message,
		})
	return res.RowsAffected, res.Error
}

func (r *Payments) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&billing.Payment{}).Error; err != nil {
		return fmt.Errorf("failed to delete payment %s: %w", id, err)
	}
	return nil
}
