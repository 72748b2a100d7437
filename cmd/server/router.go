package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/mzhurov/commune/internal/handlers"
	"github.com/mzhurov/commune/internal/middleware"
	"github.com/mzhurov/commune/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
	authH *handlers.AuthHandler,
	userH *handlers.UserHandler,
	convH *handlers.ConversationHandler,
	msgH *handlers.MessageHandler,
	roomH *handlers.RoomHandler,
	wsH *handlers.WebSocketHandler,
) {
	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", middleware.AuthMiddleware(jwtMgr, rdb), authH.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1", middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.GET("/me", userH.GetMe)
		api.PATCH("/me", userH.UpdateMe)

		api.GET("/users", userH.ChatUsers)
		api.GET("/users/search", userH.SearchUsers)
		api.POST("/users/:id/block", userH.BlockUser)
		api.DELETE("/users/:id/block", userH.UnblockUser)
		api.GET("/users/blocked", userH.BlockedUsers)
		api.POST("/users/:id/report", userH.ReportUser)
		api.GET("/reports", userH.MyReports)

		api.GET("/conversations", convH.ListConversations)
		api.GET("/conversations/:id/messages", convH.GetMessages)
		api.POST("/conversations/:id/messages", convH.SendMessage)

		api.GET("/requests", convH.ListRequests)
		api.POST("/requests/:id/accept", convH.AcceptRequest)
		api.POST("/requests/:id/reject", convH.RejectRequest)
		api.POST("/requests/:id/cancel", convH.CancelRequest)

		api.PATCH("/messages/:id", msgH.EditMessage)
		api.DELETE("/messages/:id", msgH.DeleteMessage)
		api.POST("/messages/:id/reactions", msgH.ToggleReaction)

		api.POST("/rooms", roomH.CreateRoom)
		api.GET("/rooms", roomH.GetMyRooms)
		api.GET("/rooms/:id", roomH.GetRoom)
		api.PATCH("/rooms/:id", roomH.RenameRoom)
		api.DELETE("/rooms/:id", roomH.DeleteRoom)
		api.GET("/rooms/:id/messages", roomH.GetRoomMessages)
		api.POST("/rooms/:id/messages", roomH.SendRoomMessage)
		api.POST("/rooms/:id/members", roomH.AddMembers)
		api.DELETE("/rooms/:id/members/:userId", roomH.RemoveMember)
		api.POST("/rooms/:id/admins/:userId", roomH.PromoteAdmin)
		api.POST("/rooms/:id/leave", roomH.LeaveRoom)
	}

	// Realtime channel
	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)
}
