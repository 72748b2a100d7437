package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/cache"
	"github.com/mzhurov/commune/internal/chat"
	"github.com/mzhurov/commune/internal/database"
	"github.com/mzhurov/commune/internal/middleware"
	"github.com/mzhurov/commune/internal/models"
	"github.com/mzhurov/commune/internal/presence"
)

type UserHandler struct {
	db       *database.Database
	caches   *cache.Registry
	guard    *chat.BlockGuard
	presence *presence.Presence
}

func NewUserHandler(db *database.Database, caches *cache.Registry, guard *chat.BlockGuard, pres *presence.Presence) *UserHandler {
	return &UserHandler{db: db, caches: caches, guard: guard, presence: pres}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	user, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"email":        user.Email,
		"avatar_url":   user.AvatarURL,
		"created_at":   user.CreatedAt,
		"last_seen_at": user.LastSeenAt,
	})
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		AvatarURL   string `json:"avatar_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}

	if err := h.db.UpdateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
	})
}

// ChatUsers lists everyone the viewer could start a conversation with,
// including online state and block flags. Served through the viewer's cache.
func (h *UserHandler) ChatUsers(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	value, err := h.caches.For(userID).Read(c.Request.Context(), cache.TagChatUsers, func(ctx context.Context) (interface{}, error) {
		users, err := h.db.ListChatUsers(userID)
		if err != nil {
			return nil, err
		}

		result := make([]gin.H, 0, len(users))
		for i := range users {
			user := &users[i]

			flags, err := h.guard.Flags(userID, user.ID)
			if err != nil {
				return nil, err
			}

			entry := gin.H{
				"id":           user.ID,
				"username":     user.Username,
				"display_name": user.DisplayName,
				"avatar_url":   user.AvatarURL,
				"is_online":    h.presence.IsOnline(ctx, user.ID),
				"last_seen_at": user.LastSeenAt,
				"blocked":      flags,
			}
			if seen, ok := h.presence.LastSeen(ctx, user.ID); ok {
				entry["last_seen_at"] = seen
			}

			result = append(result, entry)
		}
		return result, nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": value})
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	users, err := h.db.SearchUsersByUsername(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search users"})
		return
	}

	result := make([]gin.H, len(users))
	for i, user := range users {
		result[i] = gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
			"avatar_url":   user.AvatarURL,
		}
	}

	c.JSON(http.StatusOK, gin.H{"users": result})
}

func (h *UserHandler) BlockUser(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.guard.Block(userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user blocked"})
}

func (h *UserHandler) UnblockUser(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.guard.Unblock(userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user unblocked"})
}

// BlockedUsers lists everyone the viewer has blocked. Served through the
// viewer's cache.
func (h *UserHandler) BlockedUsers(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	value, err := h.caches.For(userID).Read(c.Request.Context(), cache.TagBlockedUsers, func(ctx context.Context) (interface{}, error) {
		blocks, err := h.db.ListBlockedUsers(userID)
		if err != nil {
			return nil, err
		}

		result := make([]gin.H, len(blocks))
		for i, b := range blocks {
			result[i] = gin.H{
				"id":         b.Blocked.ID,
				"username":   b.Blocked.Username,
				"avatar_url": b.Blocked.AvatarURL,
				"blocked_at": b.CreatedAt,
			}
		}
		return result, nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocked_users": value})
}

// ReportUser files a moderation report. It has no effect on the gate or the
// block guard.
func (h *UserHandler) ReportUser(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req struct {
		Reason      string `json:"reason" binding:"required"`
		Description string `json:"description"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := &models.UserReport{
		ReporterID:  userID,
		ReportedID:  targetID,
		Reason:      req.Reason,
		Description: req.Description,
	}

	if err := h.db.CreateReport(report); err != nil {
		respondError(c, err)
		return
	}

	h.caches.Invalidate(userID, cache.TagUserReports)

	c.JSON(http.StatusCreated, gin.H{"message": "report submitted"})
}

// MyReports lists the viewer's filed reports. Served through the viewer's
// cache.
func (h *UserHandler) MyReports(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	value, err := h.caches.For(userID).Read(c.Request.Context(), cache.TagUserReports, func(ctx context.Context) (interface{}, error) {
		reports, err := h.db.ListReportsByUser(userID)
		if err != nil {
			return nil, err
		}

		result := make([]gin.H, len(reports))
		for i, r := range reports {
			result[i] = gin.H{
				"id":          r.ID,
				"reported":    gin.H{"id": r.Reported.ID, "username": r.Reported.Username},
				"reason":      r.Reason,
				"description": r.Description,
				"created_at":  r.CreatedAt,
			}
		}
		return result, nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": value})
}
