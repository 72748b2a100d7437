package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type ToggleReactionRequest struct {
	Type string `json:"type" binding:"required"`
}

type UserInfo struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

// MessageResponse carries aggregated reaction counts plus the viewer's own
// reaction, if any.
type MessageResponse struct {
	ID          uuid.UUID      `json:"id"`
	SenderID    uuid.UUID      `json:"sender_id"`
	ReceiverID  *uuid.UUID     `json:"receiver_id,omitempty"`
	RoomID      *uuid.UUID     `json:"room,omitempty"`
	Content     string         `json:"content"`
	IsRead      bool           `json:"is_read"`
	CreatedAt   time.Time      `json:"created_at"`
	EditedAt    *time.Time     `json:"edited_at,omitempty"`
	Sender      UserInfo       `json:"sender"`
	Reactions   map[string]int `json:"reactions"`
	OwnReaction string         `json:"own_reaction,omitempty"`
}
