package sessions

import (
	"time"

	"github.com/google/uuid"
)

type Subject struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string
	SessionFeeCents int64  `gorm:"column:session_fee_cents"`
	BillingType     string `gorm:"column:billing_type"`

	CreatedAt time.Time
}

func (Subject) TableName() string { return "subjects" }

type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubjectID uuid.UUID `gorm:"type:uuid;index"`
	Subject   Subject
	StartsAt  time.Time `gorm:"index"`
	EndsAt    time.Time

	CreatedAt time.Time
}

func (Session) TableName() string { return "sessions" }

// Attendance is one student booked into one session occurrence.
type Attendance struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID      uuid.UUID `gorm:"type:uuid;index"`
	Session        Session
	StudentID      uuid.UUID `gorm:"type:uuid;index"`
	PlannedAbsence bool      `gorm:"column:planned_absence;not null;default:false"`

	CreatedAt time.Time
}

func (Attendance) TableName() string { return "sessions_students" }
