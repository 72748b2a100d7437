package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/chat"
	"github.com/mzhurov/commune/internal/handlers/dto"
	"github.com/mzhurov/commune/internal/models"
)

func formatUserInfo(u *models.User) dto.UserInfo {
	return dto.UserInfo{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

func formatMessageResponse(msg *models.Message, viewerID uuid.UUID) dto.MessageResponse {
	resp := dto.MessageResponse{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		RoomID:     msg.RoomID,
		Content:    msg.Content,
		IsRead:     msg.IsRead,
		CreatedAt:  msg.CreatedAt,
		EditedAt:   msg.EditedAt,
		Reactions:  make(map[string]int),
	}

	if msg.Sender.ID != uuid.Nil {
		resp.Sender = formatUserInfo(&msg.Sender)
	}

	for _, r := range msg.Reactions {
		resp.Reactions[r.Type]++
		if r.UserID == viewerID {
			resp.OwnReaction = r.Type
		}
	}

	return resp
}

func formatMessages(messages []models.Message, viewerID uuid.UUID) []dto.MessageResponse {
	result := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		result[i] = formatMessageResponse(&messages[i], viewerID)
	}
	return result
}

func formatRoomResponse(room *models.Room) gin.H {
	members := make([]gin.H, len(room.Members))
	for i, member := range room.Members {
		members[i] = gin.H{
			"id":         member.ID,
			"username":   member.Username,
			"avatar_url": member.AvatarURL,
			"is_admin":   room.IsAdmin(member.ID),
		}
	}

	return gin.H{
		"id":         room.ID,
		"name":       room.Name,
		"created_by": room.CreatedBy,
		"created_at": room.CreatedAt,
		"members":    members,
	}
}

func formatConversation(s *chat.ConversationSummary) gin.H {
	resp := gin.H{
		"peer":         formatUserInfo(&s.Peer),
		"unread_count": s.UnreadCount,
		"state":        s.State,
		"blocked":      s.Flags,
	}

	if s.LastMessage != nil {
		resp["last_message"] = gin.H{
			"id":         s.LastMessage.ID,
			"sender_id":  s.LastMessage.SenderID,
			"content":    s.LastMessage.Content,
			"created_at": s.LastMessage.CreatedAt,
		}
	}

	if s.PendingRequest != nil {
		resp["pending_request"] = gin.H{
			"id":        s.PendingRequest.ID,
			"sender_id": s.PendingRequest.SenderID,
			"content":   s.PendingRequest.Content,
		}
	}

	return resp
}
