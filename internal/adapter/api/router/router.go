package router

import (
	"github.com/labstack/echo/v4"

	"github.com/storystove/devnet-sub000/internal/adapter/api/handler"
	"github.com/storystove/devnet-sub000/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	chatHandler *handler.ChatHandler,
	notificationHandler *handler.NotificationHandler,
	healthHandler *handler.HealthHandler,
	wsHandler *handler.WebSocketHandler,
) {
	SetupChatRouter(e, chatHandler, authMiddleware)
	SetupNotificationRouter(e, notificationHandler, authMiddleware)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e, healthHandler)
}
