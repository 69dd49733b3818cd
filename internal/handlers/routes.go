package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-match-api/internal/middleware"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth         *AuthHandler
	Project      *ProjectHandler
	Match        *MatchHandler
	Notification *NotificationHandler
}

// RegisterRoutes mounts every API route on api. requireAuth guards all
// routes except signup, login and logout.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, requireAuth gin.HandlerFunc) {
	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
	}

	projects := api.Group("/projects")
	projects.Use(requireAuth)
	{
		projects.POST("", h.Project.CreateProject)
		projects.GET("", h.Project.ListProjects)
		projects.GET("/:id", middleware.RequireIDParam("id"), h.Project.GetProject)
	}

	matches := api.Group("/matches")
	matches.Use(requireAuth)
	{
		matches.POST("", h.Match.CreateRequest)
		matches.GET("/received", h.Match.ListReceived)
		matches.GET("/sent", h.Match.ListSent)
		matches.GET("/stats", h.Match.GetStats)
		matches.GET("/can-request/:project_id", middleware.RequireIDParam("project_id"), h.Match.CanRequest)
		matches.POST("/draft-message", h.Match.DraftMessage)

		byID := matches.Group("/:id")
		byID.Use(middleware.RequireIDParam("id"))
		{
			byID.GET("", h.Match.GetRequest)
			byID.POST("/accept", h.Match.AcceptRequest)
			byID.POST("/reject", h.Match.RejectRequest)
			byID.POST("/block", h.Match.BlockRequest)
			byID.POST("/cancel", h.Match.CancelRequest)
		}
	}

	notifications := api.Group("/notifications")
	notifications.Use(requireAuth)
	{
		notifications.GET("", h.Notification.ListNotifications)
		notifications.GET("/unread-count", h.Notification.UnreadCount)
		notifications.GET("/stream", h.Notification.Stream)
		notifications.PATCH("/:id/read", middleware.RequireIDParam("id"), h.Notification.MarkAsRead)
	}
}
