package notify

import (
	"context"
	"strings"

	"tutor-billing/internal/domain/billing"
	"tutor-billing/internal/domain/messaging"

	"go.uber.org/zap"
)

// StatusReport is a verified delivery receipt.
type StatusReport struct {
	MessageSID    string
	MessageStatus string
	ErrorCode     string
	ErrorMessage  string
}

func (s *Service) ApplyStatus(ctx context.Context, r StatusReport) error {
	const op = "notify.ApplyStatus"
	sid := strings.TrimSpace(r.MessageSID)
	if sid == "" || strings.TrimSpace(r.MessageStatus) == "" {
		return billing.Validation(op, "MessageSid and MessageStatus are required")
	}

	status, ok := messaging.StatusFromProvider(r.MessageStatus)
	if !ok {
		s.Log.Info("unmapped sms status ignored", zap.String("sid", sid), zap.String("status", r.MessageStatus))
		return nil
	}

	msg, err := s.Repo.MessageByProviderID(ctx, sid)
	if err != nil {
		return err
	}
	if msg == nil {
		s.Log.Warn("status for unknown message", zap.String("sid", sid))
		return nil
	}
	if !messaging.CanTransition(msg.Status, status) {
		s.Log.Debug("stale sms status ignored",
			zap.String("sid", sid),
			zap.String("from", string(msg.Status)),
			zap.String("to", string(status)))
		return nil
	}

	upd := messaging.MessageUpdate{Status: &status}
	switch status {
	case messaging.StatusDelivered:
		now := s.Now()
		upd.DeliveredAt = &now
	case messaging.StatusUndelivered, messaging.StatusFailed:
		if r.ErrorCode != "" {
			code := r.ErrorCode
			upd.ErrorCode = &code
		}
		if r.ErrorMessage != "" {
			m := r.ErrorMessage
			upd.ErrorMessage = &m
		}
	}
	return s.Repo.UpdateMessage(ctx, msg.ID, upd)
}
