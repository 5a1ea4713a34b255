package messaging

import (
	"time"

	"github.com/google/uuid"
)

type Contact struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentID   *uuid.UUID `gorm:"type:uuid;index"`
	PhoneNumber string     `gorm:"uniqueIndex"`
	Name        *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Contact) TableName() string { return "contacts" }

// OwnedNumber is a sending identity. MessagingServiceSID wins over PhoneNumber.
type OwnedNumber struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PhoneNumber         string    `gorm:"uniqueIndex"`
	MessagingServiceSID *string   `gorm:"column:messaging_service_sid"`
	Label               *string

	CreatedAt time.Time
}

func (OwnedNumber) TableName() string { return "owned_numbers" }

// Sender returns the transport identity and whether it is a messaging service.
func (o OwnedNumber) Sender() (string, bool) {
	if o.MessagingServiceSID != nil && *o.MessagingServiceSID != "" {
		return *o.MessagingServiceSID, true
	}
	return o.PhoneNumber, false
}

type ConversationStatus string

const (
	ConversationOpen    ConversationStatus = "OPEN"
	ConversationSnoozed ConversationStatus = "SNOOZED"
	ConversationClosed  ConversationStatus = "CLOSED"
)

type Conversation struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ContactID     uuid.UUID          `gorm:"type:uuid;index:idx_conversation_pair"`
	OwnedNumberID uuid.UUID          `gorm:"type:uuid;index:idx_conversation_pair"`
	Status        ConversationStatus `gorm:"type:varchar(10)"`
	LastMessageAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Conversation) TableName() string { return "conversations" }

type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutgoing Direction = "OUTGOING"
)

type Message struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID    uuid.UUID     `gorm:"type:uuid;index"`
	Direction         Direction     `gorm:"type:varchar(10)"`
	Body              string        `gorm:"type:text"`
	Status            MessageStatus `gorm:"type:varchar(12)"`
	ProviderMessageID *string       `gorm:"column:provider_message_id;index"`
	ErrorCode         *string
	ErrorMessage      *string
	SentAt            *time.Time
	DeliveredAt       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Message) TableName() string { return "messages" }

// MessageUpdate is a partial update; nil fields are left untouched.
type MessageUpdate struct {
	Status            *MessageStatus
	ProviderMessageID *string
	ErrorCode         *string
	ErrorMessage      *string
	SentAt            *time.Time
	DeliveredAt       *time.Time
}

func (u MessageUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.ProviderMessageID != nil {
		cols["provider_message_id"] = *u.ProviderMessageID
	}
	if u.ErrorCode != nil {
		cols["error_code"] = *u.ErrorCode
	}
	if u.ErrorMessage != nil {
		cols["error_message"] = *u.ErrorMessage
	}
	if u.SentAt != nil {
		cols["sent_at"] = *u.SentAt
	}
	if u.DeliveredAt != nil {
		cols["delivered_at"] = *u.DeliveredAt
	}
	return cols
}

func (u MessageUpdate) Apply(m *Message) {
	if u.Status != nil {
		m.Status = *u.Status
	}
	if u.ProviderMessageID != nil {
		m.ProviderMessageID = u.ProviderMessageID
	}
	if u.ErrorCode != nil {
		m.ErrorCode = u.ErrorCode
	}
	if u.ErrorMessage != nil {
		m.ErrorMessage = u.ErrorMessage
	}
	if u.SentAt != nil {
		m.SentAt = u.SentAt
	}
	if u.DeliveredAt != nil {
		m.DeliveredAt = u.DeliveredAt
	}
}
