package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_EXCHANGE_RECORDED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const TypeChatExchangeRecorded = "CHAT_EXCHANGE_RECORDED"

// ChatExchangeRecorded is emitted after a {user, assistant} pair has been
// committed for a session.
type ChatExchangeRecorded struct {
	UserId        uuid.UUID `json:"user_id"`
	SessionId     uuid.UUID `json:"session_id"`
	UserMessageId uuid.UUID `json:"user_message_id"`
	ReplyId       uuid.UUID `json:"reply_id"`
	Blocked       bool      `json:"blocked"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (e ChatExchangeRecorded) EventType() string {
	return TypeChatExchangeRecorded
}

func (e ChatExchangeRecorded) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserId.String(),
		"session_id":      e.SessionId.String(),
		"user_message_id": e.UserMessageId.String(),
		"reply_id":        e.ReplyId.String(),
		"blocked":         e.Blocked,
		"occurred_at":     e.OccurredAt,
	}
}

func (e ChatExchangeRecorded) Timestamp() time.Time {
	return e.OccurredAt
}
