package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/cache"
	"github.com/mzhurov/commune/internal/chat"
	"github.com/mzhurov/commune/internal/database"
	"github.com/mzhurov/commune/internal/handlers/dto"
	"github.com/mzhurov/commune/internal/middleware"
)

type ConversationHandler struct {
	db            *database.Database
	caches        *cache.Registry
	conversations *chat.ConversationService
	pipeline      *chat.Pipeline
	gate          *chat.AccessGate
	guard         *chat.BlockGuard
}

func NewConversationHandler(
	db *database.Database,
	caches *cache.Registry,
	conversations *chat.ConversationService,
	pipeline *chat.Pipeline,
	gate *chat.AccessGate,
	guard *chat.BlockGuard,
) *ConversationHandler {
	return &ConversationHandler{
		db:            db,
		caches:        caches,
		conversations: conversations,
		pipeline:      pipeline,
		gate:          gate,
		guard:         guard,
	}
}

// ListConversations serves the viewer's conversation list through their
// cache.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	value, err := h.caches.For(userID).Read(c.Request.Context(), cache.TagConversations, func(ctx context.Context) (interface{}, error) {
		summaries, err := h.conversations.List(userID)
		if err != nil {
			return nil, err
		}

		result := make([]gin.H, len(summaries))
		for i := range summaries {
			result[i] = formatConversation(&summaries[i])
		}
		return result, nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": value})
}

// GetMessages returns the direct history with a peer plus the gate/guard
// state the view needs to decide between composer and request/block
// placeholders. The default page is served through the viewer's cache.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	peerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	limit, beforeID := pagination(c)

	// Opening the conversation reads it. The flip changes the unread count in
	// the conversations list and the is_read flags in the cached page, so
	// both go stale before anything is served from the cache.
	changed, err := h.db.MarkDirectMessagesRead(userID, peerID)
	if err != nil {
		respondError(c, err)
		return
	}
	if changed > 0 {
		h.caches.Invalidate(userID, cache.TagConversations, cache.MessagesTag(peerID))
	}

	var formatted interface{}
	if beforeID == nil {
		formatted, err = h.caches.For(userID).Read(c.Request.Context(), cache.MessagesTag(peerID), func(ctx context.Context) (interface{}, error) {
			return h.fetchMessages(userID, peerID, limit, nil)
		})
	} else {
		formatted, err = h.fetchMessages(userID, peerID, limit, beforeID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	flags, err := h.guard.Flags(userID, peerID)
	if err != nil {
		respondError(c, err)
		return
	}

	state, pending, err := h.gate.StateBetween(userID, peerID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"messages": formatted,
		"state":    state,
		"blocked":  flags,
	}
	if pending != nil && !pending.Resolved() {
		resp["pending_request"] = gin.H{
			"id":        pending.ID,
			"sender_id": pending.SenderID,
			"content":   pending.Content,
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) fetchMessages(userID, peerID uuid.UUID, limit int, beforeID *uuid.UUID) ([]dto.MessageResponse, error) {
	messages, err := h.db.GetDirectMessages(userID, peerID, limit, beforeID)
	if err != nil {
		return nil, err
	}
	return formatMessages(messages, userID), nil
}

// SendMessage delivers a direct message, or creates a message request when
// the conversation is still gated (is_request flags which one happened).
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	receiverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.pipeline.SendDirect(userID, receiverID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.IsRequest {
		c.JSON(http.StatusCreated, gin.H{
			"is_request": true,
			"request": gin.H{
				"id":         result.Request.ID,
				"content":    result.Request.Content,
				"status":     result.Request.Status,
				"created_at": result.Request.CreatedAt,
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"is_request": false,
		"message":    formatMessageResponse(result.Message, userID),
	})
}

// ListRequests serves the viewer's open message requests through their
// cache.
func (h *ConversationHandler) ListRequests(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	value, err := h.caches.For(userID).Read(c.Request.Context(), cache.TagMessageRequests, func(ctx context.Context) (interface{}, error) {
		requests, err := h.db.ListRequestsForUser(userID)
		if err != nil {
			return nil, err
		}

		result := make([]gin.H, len(requests))
		for i, r := range requests {
			result[i] = gin.H{
				"id":         r.ID,
				"sender":     formatUserInfo(&r.Sender),
				"receiver":   formatUserInfo(&r.Receiver),
				"content":    r.Content,
				"status":     r.Status,
				"created_at": r.CreatedAt,
				"outgoing":   r.SenderID == userID,
			}
		}
		return result, nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": value})
}

func (h *ConversationHandler) AcceptRequest(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	msg, err := h.gate.Accept(userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": formatMessageResponse(msg, userID)})
}

func (h *ConversationHandler) RejectRequest(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	if err := h.gate.Reject(userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "request rejected"})
}

func (h *ConversationHandler) CancelRequest(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	if err := h.gate.Cancel(userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "request cancelled"})
}

func pagination(c *gin.Context) (int, *uuid.UUID) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var beforeID *uuid.UUID
	if before := c.Query("before"); before != "" {
		if id, err := uuid.Parse(before); err == nil {
			beforeID = &id
		}
	}

	return limit, beforeID
}
