// Package store holds the gorm repositories behind the billing and
// messaging services.
package store

import (
	"errors"

	"tutor-billing/internal/domain/billing"

	"gorm.io/gorm"
)

// Store groups every repository over one connection.
type Store struct {
	Payments   *Payments
	Profiles   *Profiles
	Settings   *Settings
	Attendance *Attendance
	Subsidies  *Subsidies
	Students   *Students
	Messaging  *Messaging
}

func New(db *gorm.DB) *Store {
	return &Store{
		Payments:   &Payments{db: db},
		Profiles:   &Profiles{db: db},
		Settings:   &Settings{db: db},
		Attendance: &Attendance{db: db},
		Subsidies:  &Subsidies{db: db},
		Students:   &Students{db: db},
		Messaging:  &Messaging{db: db},
	}
}

// notFound turns gorm.ErrRecordNotFound into a billing NotFound error.
func notFound(op, what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return billing.NotFound(op, what+" not found")
	}
	return err
}

// optional returns (false, nil) for a missing row.
func optional(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}
