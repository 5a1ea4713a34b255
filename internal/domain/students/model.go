package students

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Student struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FirstName string
	LastName  string
	Email     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Student) TableName() string { return "students" }

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// ParentStudent links a guardian to a student. The primary parent is the payer.
type ParentStudent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentID   uuid.UUID `gorm:"type:uuid;index"`
	ParentName  string
	ParentEmail *string
	ParentPhone *string
	IsPrimary   bool

	CreatedAt time.Time
}

func (ParentStudent) TableName() string { return "parents_students" }
