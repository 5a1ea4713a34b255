package billing

import "github.com/google/uuid"

// EventSubtype discriminates PaymentIntents created by this service.
type EventSubtype string

const (
	SubtypeVerification  EventSubtype = "verification"
	SubtypeSessionCharge EventSubtype = "session_charge"
	SubtypeUnknown       EventSubtype = ""
)

// Intent metadata keys written on every PaymentIntent we create.
const (
	MetaType               = "type"
	MetaStudentID          = "student_id"
	MetaPaymentID          = "payment_id"
	MetaSessionsStudentsID = "sessions_students_id"
)

type IntentOutcome int

const (
	OutcomeSucceeded IntentOutcome = iota + 1
	OutcomeFailed
)

// IntentEvent is a provider PaymentIntent event resolved at the webhook
// boundary. Only the fields relevant to Subtype are populated.
type IntentEvent struct {
	Outcome         IntentOutcome
	Subtype         EventSubtype
	IntentID        string
	CustomerID      string
	PaymentMethodID string
	LatestChargeID  string
	FailureMessage  string

	// session_charge
	PaymentID          uuid.UUID
	SessionsStudentsID uuid.UUID

	// verification
	StudentID uuid.UUID
}

// ParseSubtype maps the metadata "type" tag; unknown tags yield SubtypeUnknown.
func ParseSubtype(s string) EventSubtype {
	switch EventSubtype(s) {
	case SubtypeVerification, SubtypeSessionCharge:
		return EventSubtype(s)
	default:
		return SubtypeUnknown
	}
}
