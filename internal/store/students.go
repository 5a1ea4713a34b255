package store

import (
	"context"
	"fmt"

	"tutor-billing/internal/domain/students"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Students struct {
	db *gorm.DB
}

func (r *Students) Get(ctx context.Context, id uuid.UUID) (*students.Student, error) {
	var s students.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound("store.Students.Get", "student", err)
	}
	return &s, nil
}

// PrimaryParent prefers the is_primary link, then the oldest one. Nil if none.
func (r *Students) PrimaryParent(ctx context.Context, studentID uuid.UUID) (*students.ParentStudent, error) {
	var p students.ParentStudent
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("is_primary DESC, created_at ASC").
		First(&p).Error
	ok, err := optional(err)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}
