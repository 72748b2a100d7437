package realtime

import (
	"time"

	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/models"
)

type EventType string

const (
	EventMessage         EventType = "message"
	EventMessageReaction EventType = "message_reaction"
)

type MessagePayload struct {
	ID         uuid.UUID  `json:"id"`
	RoomID     *uuid.UUID `json:"room,omitempty"`
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID *uuid.UUID `json:"receiver_id,omitempty"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ReactionPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	UserID    uuid.UUID `json:"user_id"`
}

// Event is the push payload delivered to open conversations.
type Event struct {
	Type     EventType        `json:"type"`
	RoomID   *uuid.UUID       `json:"room,omitempty"`
	Message  *MessagePayload  `json:"message,omitempty"`
	Reaction *ReactionPayload `json:"reaction,omitempty"`
}

// MessageEvent builds a message push event from a stored message.
func MessageEvent(msg *models.Message) Event {
	return Event{
		Type:   EventMessage,
		RoomID: msg.RoomID,
		Message: &MessagePayload{
			ID:         msg.ID,
			RoomID:     msg.RoomID,
			SenderID:   msg.SenderID,
			ReceiverID: msg.ReceiverID,
			Content:    msg.Content,
			CreatedAt:  msg.CreatedAt,
		},
	}
}

// ReactionEvent builds a reaction push event for a message.
func ReactionEvent(msg *models.Message, userID uuid.UUID) Event {
	return Event{
		Type:   EventMessageReaction,
		RoomID: msg.RoomID,
		Reaction: &ReactionPayload{
			MessageID: msg.ID,
			UserID:    userID,
		},
	}
}
