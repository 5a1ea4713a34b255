package store

import (
	"context"
	"fmt"
	"time"

	"tutor-billing/internal/domain/messaging"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Messaging struct {
	db *gorm.DB
}

// ContactForStudent returns the student's contact with a phone number, or nil.
func (r *Messaging) ContactForStudent(ctx context.Context, studentID uuid.UUID) (*messaging.Contact, error) {
	var c messaging.Contact
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND phone_number <> ''", studentID).
		Order("created_at ASC").
		First(&c).Error
	ok, err := optional(err)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *Messaging) Contact(ctx context.Context, id uuid.UUID) (*messaging.Contact, error) {
	var c messaging.Contact
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound("store.Messaging.Contact", "contact", err)
	}
	return &c, nil
}

// UpsertContact returns the contact for phone, creating it when absent.
func (r *Messaging) UpsertContact(ctx context.Context, phone string) (*messaging.Contact, error) {
	c := messaging.Contact{ID: uuid.New(), PhoneNumber: phone}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "phone_number"}}, DoNothing: true}).
		Create(&c).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert contact: %w", err)
	}

	var out messaging.Contact
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load contact %s: %w", phone, err)
	}
	return &out, nil
}

// FirstOwnedNumber returns the oldest configured sending identity, or nil.
func (r *Messaging) FirstOwnedNumber(ctx context.Context) (*messaging.OwnedNumber, error) {
	var o messaging.OwnedNumber
	ok, err := optional(r.db.WithContext(ctx).Order("created_at ASC").First(&o).Error)
	if err != nil {
		return nil, fmt.Errorf("failed to load owned number: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *Messaging) OwnedNumber(ctx context.Context, id uuid.UUID) (*messaging.OwnedNumber, error) {
	var o messaging.OwnedNumber
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, notFound("store.Messaging.OwnedNumber", "owned number", err)
	}
	return &o, nil
}

// OwnedNumberByPhone returns nil for numbers we do not own.
func (r *Messaging) OwnedNumberByPhone(ctx context.Context, phone string) (*messaging.OwnedNumber, error) {
	var o messaging.OwnedNumber
	ok, err := optional(r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&o).Error)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve owned number: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *Messaging) Conversation(ctx context.Context, id uuid.UUID) (*messaging.Conversation, error) {
	var c messaging.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound("store.Messaging.Conversation", "conversation", err)
	}
	return &c, nil
}

// OpenConversation finds an OPEN or SNOOZED conversation for the pair or
// creates an OPEN one.
func (r *Messaging) OpenConversation(ctx context.Context, contactID, ownedNumberID uuid.UUID) (*messaging.Conversation, error) {
	var c messaging.Conversation
	err := r.db.WithContext(ctx).
		Where("contact_id = ? AND owned_number_id = ?", contactID, ownedNumberID).
		Where("status IN ?", []messaging.ConversationStatus{messaging.ConversationOpen, messaging.ConversationSnoozed}).
		Order("updated_at DESC").
		First(&c).Error
	ok, err := optional(err)
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	if ok {
		return &c, nil
	}

	c = messaging.Conversation{
		ID:            uuid.New(),
		ContactID:     contactID,
		OwnedNumberID: ownedNumberID,
		Status:        messaging.ConversationOpen,
	}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &c, nil
}

func (r *Messaging) TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&messaging.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to bump conversation %s: %w", id, err)
	}
	return nil
}

func (r *Messaging) CreateMessage(ctx context.Context, m *messaging.Message) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *Messaging) Message(ctx context.Context, id uuid.UUID) (*messaging.Message, error) {
	var m messaging.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound("store.Messaging.Message", "message", err)
	}
	return &m, nil
}

// MessageByProviderID returns nil for unknown provider ids.
func (r *Messaging) MessageByProviderID(ctx context.Context, sid string) (*messaging.Message, error) {
	var m messaging.Message
	ok, err := optional(r.db.WithContext(ctx).Where("provider_message_id = ?", sid).First(&m).Error)
	if err != nil {
		return nil, fmt.Errorf("failed to load message by sid: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *Messaging) UpdateMessage(ctx context.Context, id uuid.UUID, upd messaging.MessageUpdate) error {
	cols := upd.Columns()
	if len(cols) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&messaging.Message{}).Where("id = ?", id).Updates(cols).Error; err != nil {
		return fmt.Errorf("failed to update message %s: %w", id, err)
	}
	return nil
}
