package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/cache"
	"github.com/mzhurov/commune/internal/chat"
	"github.com/mzhurov/commune/internal/database"
	"github.com/mzhurov/commune/internal/handlers/dto"
	"github.com/mzhurov/commune/internal/middleware"
)

type RoomHandler struct {
	db       *database.Database
	caches   *cache.Registry
	rooms    *chat.RoomService
	pipeline *chat.Pipeline
}

func NewRoomHandler(db *database.Database, caches *cache.Registry, rooms *chat.RoomService, pipeline *chat.Pipeline) *RoomHandler {
	return &RoomHandler{db: db, caches: caches, rooms: rooms, pipeline: pipeline}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Name      string   `json:"name" binding:"required"`
		MemberIDs []string `json:"member_ids"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	memberIDs, ok := parseIDs(req.MemberIDs)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
		return
	}

	room, err := h.rooms.CreateRoom(userID, req.Name, memberIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, formatRoomResponse(room))
}

// GetMyRooms serves the viewer's room list, with last-message previews,
// through their cache.
func (h *RoomHandler) GetMyRooms(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	value, err := h.caches.For(userID).Read(c.Request.Context(), cache.TagChatRooms, func(ctx context.Context) (interface{}, error) {
		rooms, err := h.db.GetUserRooms(userID.String())
		if err != nil {
			return nil, err
		}

		result := make([]gin.H, len(rooms))
		for i := range rooms {
			room := &rooms[i]
			resp := formatRoomResponse(room)

			messages, _ := h.db.GetRoomMessages(room.ID.String(), 1, nil)
			if len(messages) > 0 {
				resp["last_message"] = gin.H{
					"id":         messages[0].ID,
					"sender_id":  messages[0].SenderID,
					"content":    messages[0].Content,
					"created_at": messages[0].CreatedAt,
				}
			}

			result[i] = resp
		}
		return result, nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": value})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	room, err := h.db.GetRoom(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if !room.IsMember(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this room"})
		return
	}

	c.JSON(http.StatusOK, formatRoomResponse(room))
}

// GetRoomMessages returns the room history; membership is enforced so a
// removed member gets Forbidden.
func (h *RoomHandler) GetRoomMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	limit, beforeID := pagination(c)

	var formatted interface{}
	if beforeID == nil {
		formatted, err = h.caches.For(userID).Read(c.Request.Context(), cache.MessagesTag(roomID), func(ctx context.Context) (interface{}, error) {
			messages, err := h.rooms.RoomMessages(userID, roomID, limit, nil)
			if err != nil {
				return nil, err
			}
			return formatMessages(messages, userID), nil
		})
	} else {
		var messages []dto.MessageResponse
		raw, fetchErr := h.rooms.RoomMessages(userID, roomID, limit, beforeID)
		if fetchErr == nil {
			messages = formatMessages(raw, userID)
		}
		formatted, err = messages, fetchErr
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": formatted})
}

func (h *RoomHandler) SendRoomMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.pipeline.SendRoom(userID, roomID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, formatMessageResponse(msg, userID))
}

func (h *RoomHandler) RenameRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.rooms.RenameRoom(userID, roomID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, formatRoomResponse(room))
}

func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if err := h.rooms.DeleteRoom(userID, roomID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "room deleted"})
}

func (h *RoomHandler) AddMembers(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req struct {
		MemberIDs []string `json:"member_ids" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	memberIDs, ok := parseIDs(req.MemberIDs)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
		return
	}

	room, err := h.rooms.AddMembers(userID, roomID, memberIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, formatRoomResponse(room))
}

func (h *RoomHandler) RemoveMember(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.rooms.RemoveMember(userID, roomID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

func (h *RoomHandler) PromoteAdmin(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.rooms.PromoteAdmin(userID, roomID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "admin promoted"})
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if err := h.rooms.LeaveRoom(userID, roomID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left room"})
}

func parseIDs(raw []string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
