package router

import (
	"github.com/labstack/echo/v4"

	"github.com/storystove/devnet-sub000/internal/adapter/api/handler"
	"github.com/storystove/devnet-sub000/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all conversation-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.GET("", chatHandler.ListConversations)                        // GET /v1/conversations - conversation summaries
	conversations.POST("/:counterpartId/messages", chatHandler.SendMessage)     // POST /v1/conversations/:counterpartId/messages
	conversations.GET("/:counterpartId/messages", chatHandler.GetMessages)      // GET /v1/conversations/:counterpartId/messages
	conversations.PUT("/:counterpartId/read", chatHandler.MarkConversationRead) // PUT /v1/conversations/:counterpartId/read
}
