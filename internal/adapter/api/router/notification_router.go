package router

import (
	"github.com/labstack/echo/v4"

	"github.com/storystove/devnet-sub000/internal/adapter/api/handler"
	"github.com/storystove/devnet-sub000/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	notifications := e.Group("/v1/notifications")
	notifications.Use(authMiddleware.Authenticate)

	notifications.GET("", notificationHandler.GetFeed)           // GET /v1/notifications - newest page
	notifications.GET("/more", notificationHandler.LoadMore)     // GET /v1/notifications/more?cursor=&limit=
	notifications.PUT("/:id/read", notificationHandler.MarkRead) // PUT /v1/notifications/:id/read
}
