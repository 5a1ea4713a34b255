package store

import (
	"context"
	"fmt"
	"time"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/sessions"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Attendance struct {
	db *gorm.DB
}

// BillableBetween returns attendance rows, with session and subject loaded,
// for sessions starting in [from, to]. Planned absences are excluded.
func (r *Attendance) BillableBetween(ctx context.Context, from, to time.Time) ([]sessions.Attendance, error) {
	var rows []sessions.Attendance
	err := r.db.WithContext(ctx).
		Joins("JOIN sessions ON sessions.id = sessions_students.session_id").
		Where("sessions.starts_at >= ? AND sessions.starts_at <= ?", from, to).
		Where("sessions_students.planned_absence = ?", false).
		Preload("Session.Subject").
		Order("sessions.starts_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load billable attendance: %w", err)
	}
	return rows, nil
}

type Subsidies struct {
	db *gorm.DB
}

// Active returns the subsidy in force at t or nil.
func (r *Subsidies) Active(ctx context.Context, studentID, subjectID uuid.UUID, billingType string, at time.Time) (*billing.Subsidy, error) {
	var s billing.Subsidy
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ? AND billing_type = ?", studentID, subjectID, billingType).
		Where("effective_from <= ?", at).
		Where("effective_until IS NULL OR effective_until > ?", at).
		Order("effective_from DESC").
		First(&s).Error
	ok, err := optional(err)
	if err != nil {
		return nil, fmt.Errorf("failed to load subsidy: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &s, nil
}
