// Package notify carries the SMS side of billing: failure notices, outbound
// sends, inbound replies and delivery receipts.
package notify

import (
	"context"
	"time"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/messaging"
	"tutor-billing/internal/domain/students"
	twilioinfra "tutor-billing/internal/infra/twilio"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	ContactForStudent(ctx context.Context, studentID uuid.UUID) (*messaging.Contact, error)
	Contact(ctx context.Context, id uuid.UUID) (*messaging.Contact, error)
	UpsertContact(ctx context.Context, phone string) (*messaging.Contact, error)
	FirstOwnedNumber(ctx context.Context) (*messaging.OwnedNumber, error)
	OwnedNumber(ctx context.Context, id uuid.UUID) (*messaging.OwnedNumber, error)
	OwnedNumberByPhone(ctx context.Context, phone string) (*messaging.OwnedNumber, error)
	Conversation(ctx context.Context, id uuid.UUID) (*messaging.Conversation, error)
	OpenConversation(ctx context.Context, contactID, ownedNumberID uuid.UUID) (*messaging.Conversation, error)
	TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error
	CreateMessage(ctx context.Context, m *messaging.Message) error
	Message(ctx context.Context, id uuid.UUID) (*messaging.Message, error)
	MessageByProviderID(ctx context.Context, sid string) (*messaging.Message, error)
	UpdateMessage(ctx context.Context, id uuid.UUID, upd messaging.MessageUpdate) error
}

type PaymentReader interface {
	Get(ctx context.Context, id uuid.UUID) (*billing.Payment, error)
}

type StudentReader interface {
	Get(ctx context.Context, id uuid.UUID) (*students.Student, error)
}

// Transport sends one SMS and returns the provider message id.
type Transport interface {
	Send(ctx context.Context, p twilioinfra.SendParams) (string, error)
}

type Service struct {
	Repo      Repository
	Payments  PaymentReader
	Students  StudentReader
	Transport Transport
	// StatusCallbackURL receives delivery receipts for outbound messages.
	StatusCallbackURL string
	Now               func() time.Time
	Log               *zap.Logger
}

// NotifyFailure queues and sends the payment-failed SMS for paymentID.
func (s *Service) NotifyFailure(ctx context.Context, paymentID uuid.UUID) (uuid.UUID, error) {
	const op = "notify.NotifyFailure"
	if paymentID == uuid.Nil {
		return uuid.Nil, billing.Validation(op, "paymentId is required")
	}

	payment, err := s.Payments.Get(ctx, paymentID)
	if err != nil {
		return uuid.Nil, err
	}
	student, err := s.Students.Get(ctx, payment.StudentID)
	if err != nil {
		return uuid.Nil, err
	}

	contact, err := s.Repo.ContactForStudent(ctx, payment.StudentID)
	if err != nil {
		return uuid.Nil, err
	}
	if contact == nil || contact.PhoneNumber == "" {
		return uuid.Nil, billing.Validation(op, "no contact phone for student")
	}

	owned, err := s.Repo.FirstOwnedNumber(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if owned == nil {
		return uuid.Nil, billing.Validation(op, "no owned number configured")
	}

	conv, err := s.Repo.OpenConversation(ctx, contact.ID, owned.ID)
	if err != nil {
		return uuid.Nil, err
	}

	now := s.Now()
	msg := messaging.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Direction:      messaging.DirectionOutgoing,
		Body:           messaging.PaymentFailedBody(student.FullName(), billing.FormatDollars(payment.AmountCents)),
		Status:         messaging.StatusQueued,
	}
	if err := s.Repo.CreateMessage(ctx, &msg); err != nil {
		return uuid.Nil, err
	}
	s.touch(ctx, conv.ID, now)

	s.Log.Info("payment failure message queued",
		zap.String("payment_id", payment.ID.String()),
		zap.String("message_id", msg.ID.String()))

	if _, err := s.Send(ctx, msg.ID); err != nil {
		return msg.ID, err
	}
	return msg.ID, nil
}

// touch bumps last_message_at. A stale timestamp only affects inbox ordering,
// so failures are logged and the message flow continues.
func (s *Service) touch(ctx context.Context, conversationID uuid.UUID, at time.Time) {
	if err := s.Repo.TouchConversation(ctx, conversationID, at); err != nil {
		s.Log.Warn("conversation not bumped",
			zap.String("conversation_id", conversationID.String()),
			zap.Error(err))
	}
}
