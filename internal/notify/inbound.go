package notify

import (
	"context"
	"strings"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/messaging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Inbound is a verified incoming SMS.
type Inbound struct {
	MessageSID string
	From       string
	To         string
	Body       string
}

func (s *Service) Receive(ctx context.Context, in Inbound) error {
	const op = "notify.Receive"
	from, to := strings.TrimSpace(in.From), strings.TrimSpace(in.To)
	if from == "" || to == "" {
		return billing.Validation(op, "From and To are required")
	}

	owned, err := s.Repo.OwnedNumberByPhone(ctx, to)
	if err != nil {
		return err
	}
	if owned == nil {
		return billing.NotFound(op, "unknown destination number")
	}

	// provider redelivery
	if in.MessageSID != "" {
		existing, err := s.Repo.MessageByProviderID(ctx, in.MessageSID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
	}

	contact, err := s.Repo.UpsertContact(ctx, from)
	if err != nil {
		return err
	}
	conv, err := s.Repo.OpenConversation(ctx, contact.ID, owned.ID)
	if err != nil {
		return err
	}

	now := s.Now()
	msg := messaging.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Direction:      messaging.DirectionInbound,
		Body:           in.Body,
		Status:         messaging.StatusReceived,
	}
	if in.MessageSID != "" {
		sid := in.MessageSID
		msg.ProviderMessageID = &sid
	}
	if err := s.Repo.CreateMessage(ctx, &msg); err != nil {
		return err
	}
	s.touch(ctx, conv.ID, now)

	s.Log.Info("inbound sms stored",
		zap.String("conversation_id", conv.ID.String()),
		zap.String("message_id", msg.ID.String()))
	return nil
}
