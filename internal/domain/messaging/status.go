package messaging

import "strings"

type MessageStatus string

const (
	StatusQueued      MessageStatus = "QUEUED"
	StatusSending     MessageStatus = "SENDING"
	StatusSent        MessageStatus = "SENT"
	StatusDelivered   MessageStatus = "DELIVERED"
	StatusUndelivered MessageStatus = "UNDELIVERED"
	StatusFailed      MessageStatus = "FAILED"
	StatusReceived    MessageStatus = "RECEIVED"
)

// StatusFromProvider maps the transport's delivery vocabulary. ok is false
// for statuses we do not track.
func StatusFromProvider(s string) (MessageStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "queued", "accepted", "scheduled":
		return StatusQueued, true
	case "sending":
		return StatusSending, true
	case "sent":
		return StatusSent, true
	case "delivered", "read":
		return StatusDelivered, true
	case "undelivered":
		return StatusUndelivered, true
	case "failed", "canceled":
		return StatusFailed, true
	default:
		return "", false
	}
}

func (s MessageStatus) Terminal() bool {
	switch s {
	case StatusDelivered, StatusUndelivered, StatusFailed, StatusReceived:
		return true
	}
	return false
}

// rank orders the outbound lifecycle; callbacks may arrive out of order.
func (s MessageStatus) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusSending:
		return 1
	case StatusSent:
		return 2
	case StatusDelivered, StatusUndelivered, StatusFailed:
		return 3
	}
	return -1
}

// CanTransition allows forward moves on outbound messages. Inbound
// (RECEIVED) messages never change.
func CanTransition(from, to MessageStatus) bool {
	if from == StatusReceived || to == StatusReceived {
		return false
	}
	if from == to {
		return false
	}
	if from.Terminal() {
		return false
	}
	return to.rank() > from.rank()
}
