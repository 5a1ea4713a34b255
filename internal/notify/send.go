package notify

import (
	"context"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/messaging"
	twilioinfra "tutor-billing/internal/infra/twilio"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Send hands a queued outbound message to the SMS provider.
func (s *Service) Send(ctx context.Context, messageID uuid.UUID) (string, error) {
	const op = "notify.Send"
	if messageID == uuid.Nil {
		return "", billing.Validation(op, "messageId is required")
	}

	msg, err := s.Repo.Message(ctx, messageID)
	if err != nil {
		return "", err
	}
	if msg.Direction != messaging.DirectionOutgoing {
		return "", billing.Validation(op, "message is not outgoing")
	}
	if msg.ProviderMessageID != nil && *msg.ProviderMessageID != "" {
		return "", billing.Validation(op, "message already sent")
	}

	conv, err := s.Repo.Conversation(ctx, msg.ConversationID)
	if err != nil {
		return "", err
	}
	contact, err := s.Repo.Contact(ctx, conv.ContactID)
	if err != nil {
		return "", err
	}
	if contact.PhoneNumber == "" {
		return "", billing.Validation(op, "contact has no phone number")
	}
	owned, err := s.Repo.OwnedNumber(ctx, conv.OwnedNumberID)
	if err != nil {
		return "", err
	}

	params := twilioinfra.SendParams{
		To:             contact.PhoneNumber,
		Body:           msg.Body,
		StatusCallback: s.StatusCallbackURL,
	}
	if sender, isService := owned.Sender(); isService {
		params.MessagingServiceSID = sender
	} else {
		params.From = sender
	}

	sid, sendErr := s.Transport.Send(ctx, params)
	if sendErr != nil {
		failed := messaging.StatusFailed
		reason := billing.Message(sendErr)
		if err := s.Repo.UpdateMessage(ctx, msg.ID, messaging.MessageUpdate{Status: &failed, ErrorMessage: &reason}); err != nil {
			s.Log.Error("failed to record send failure", zap.String("message_id", msg.ID.String()), zap.Error(err))
		}
		return "", sendErr
	}

	now := s.Now()
	sending := messaging.StatusSending
	if err := s.Repo.UpdateMessage(ctx, msg.ID, messaging.MessageUpdate{
		Status:            &sending,
		ProviderMessageID: &sid,
		SentAt:            &now,
	}); err != nil {
		return sid, err
	}
	return sid, nil
}
