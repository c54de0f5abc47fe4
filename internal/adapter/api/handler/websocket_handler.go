package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/storystove/devnet-sub000/internal/adapter/api/middleware"
	"github.com/storystove/devnet-sub000/internal/domain/entity"
	ws "github.com/storystove/devnet-sub000/internal/infrastructure/websocket"
	"github.com/storystove/devnet-sub000/internal/usecase"
	"github.com/storystove/devnet-sub000/pkg/errors"
	"github.com/storystove/devnet-sub000/pkg/logger"
)

// Subscription keys per connection. One live feed of each kind per client;
// resubscribing replaces the previous one.
const (
	subMessages      = "messages"
	subChatList      = "chat_list"
	subNotifications = "notifications"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	wsManager           *ws.Manager
	authMiddleware      *middleware.AuthMiddleware
	chatUseCase         *usecase.ChatUseCase
	notificationUseCase *usecase.NotificationUseCase

	mu       sync.Mutex
	sessions map[*ws.Client]*usecase.FeedSession
}

func NewWebSocketHandler(
	wsManager *ws.Manager,
	authMiddleware *middleware.AuthMiddleware,
	chatUseCase *usecase.ChatUseCase,
	notificationUseCase *usecase.NotificationUseCase,
) *WebSocketHandler {
	h := &WebSocketHandler{
		wsManager:           wsManager,
		authMiddleware:      authMiddleware,
		chatUseCase:         chatUseCase,
		notificationUseCase: notificationUseCase,
		sessions:            make(map[*ws.Client]*usecase.FeedSession),
	}

	wsManager.SetMessageHandler(h.handleClientMessage)

	return h
}

// HandleWebSocket upgrades the connection and registers the client. Browsers
// cannot set headers on the WebSocket handshake, so the token also comes in
// as a query parameter.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token is required")
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("websocket upgrade failed for user %s: %v", userID, err)
		return err
	}

	client := ws.NewClient(userID, conn)
	h.wsManager.Register <- client

	go client.WritePump()
	go client.ReadPump(h.wsManager)

	return nil
}

type clientFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h *WebSocketHandler) handleClientMessage(client *ws.Client, raw []byte) {
	var frame clientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.pushError(client, errors.BadRequest("Malformed frame", err))
		return
	}

	switch frame.Type {
	case "ping":
		h.push(client, "pong", nil)
	case "subscribe_messages":
		h.subscribeMessages(client, frame.Data)
	case "unsubscribe_messages":
		client.CancelSubscription(subMessages)
	case "subscribe_chat_list":
		h.subscribeChatList(client)
	case "unsubscribe_chat_list":
		client.CancelSubscription(subChatList)
	case "subscribe_notifications":
		h.subscribeNotifications(client, frame.Data)
	case "unsubscribe_notifications":
		client.CancelSubscription(subNotifications)
	case "notifications_load_more":
		h.notificationsLoadMore(client)
	case "mark_notification_read":
		h.markNotificationRead(client, frame.Data)
	case "mark_conversation_read":
		h.markConversationRead(client, frame.Data)
	case "send_message":
		h.sendMessage(client, frame.Data)
	default:
		h.pushError(client, errors.BadRequest("Unknown frame type: "+frame.Type, nil))
	}
}

type subscribeMessagesPayload struct {
	CounterpartID string `json:"counterpart_id"`
	Limit         int    `json:"limit"`
}

func (h *WebSocketHandler) subscribeMessages(client *ws.Client, data json.RawMessage) {
	var payload subscribeMessagesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.pushError(client, errors.BadRequest("Malformed subscribe_messages payload", err))
		return
	}

	chatID := entity.ConversationID(client.UserID, payload.CounterpartID)

	cancel, err := h.chatUseCase.SubscribeMessages(client.UserID, payload.CounterpartID, payload.Limit,
		func(messages []*entity.Message) {
			h.push(client, "message_snapshot", map[string]interface{}{
				"chat_id":  chatID,
				"messages": messages,
			})
		},
		func(err error) {
			h.pushError(client, err)
		},
	)
	if err != nil {
		h.pushError(client, err)
		return
	}

	client.AddSubscription(subMessages, cancel)
}

func (h *WebSocketHandler) subscribeChatList(client *ws.Client) {
	cancel := h.chatUseCase.SubscribeConversations(client.UserID,
		func(summaries []*entity.ConversationSummary) {
			h.push(client, "chat_list", map[string]interface{}{
				"conversations": summaries,
			})
		},
		func(err error) {
			h.pushError(client, err)
		},
	)

	client.AddSubscription(subChatList, cancel)
}

type subscribeNotificationsPayload struct {
	PageSize int `json:"page_size"`
}

func (h *WebSocketHandler) subscribeNotifications(client *ws.Client, data json.RawMessage) {
	var payload subscribeNotificationsPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			h.pushError(client, errors.BadRequest("Malformed subscribe_notifications payload", err))
			return
		}
	}

	session, cancel := h.notificationUseCase.OpenLiveHead(client.UserID, payload.PageSize,
		func(visible []*entity.Notification, hasMore bool) {
			h.pushFeed(client, visible, hasMore)
		},
		func(err error) {
			h.pushError(client, err)
		},
	)

	h.mu.Lock()
	h.sessions[client] = session
	h.mu.Unlock()

	// The session dies with its subscription, however the teardown happens.
	client.AddSubscription(subNotifications, func() {
		cancel()
		h.mu.Lock()
		if h.sessions[client] == session {
			delete(h.sessions, client)
		}
		h.mu.Unlock()
	})
}

func (h *WebSocketHandler) notificationsLoadMore(client *ws.Client) {
	h.mu.Lock()
	session := h.sessions[client]
	h.mu.Unlock()

	if session == nil {
		h.pushError(client, errors.BadRequest("No active notification subscription", nil))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	visible, hasMore, err := h.notificationUseCase.LoadMoreIntoSession(ctx, client.UserID, session)
	if err != nil {
		h.pushError(client, err)
		return
	}

	h.pushFeed(client, visible, hasMore)
}

type markNotificationReadPayload struct {
	ID string `json:"id"`
}

func (h *WebSocketHandler) markNotificationRead(client *ws.Client, data json.RawMessage) {
	var payload markNotificationReadPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.pushError(client, errors.BadRequest("Malformed mark_notification_read payload", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.notificationUseCase.MarkRead(ctx, client.UserID, payload.ID); err != nil {
		h.pushError(client, err)
	}
}

type markConversationReadPayload struct {
	CounterpartID string `json:"counterpart_id"`
}

func (h *WebSocketHandler) markConversationRead(client *ws.Client, data json.RawMessage) {
	var payload markConversationReadPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.pushError(client, errors.BadRequest("Malformed mark_conversation_read payload", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.chatUseCase.MarkConversationRead(ctx, client.UserID, payload.CounterpartID); err != nil {
		h.pushError(client, err)
	}
}

type sendMessagePayload struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

func (h *WebSocketHandler) sendMessage(client *ws.Client, data json.RawMessage) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.pushError(client, errors.BadRequest("Malformed send_message payload", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.chatUseCase.SendMessage(ctx, client.UserID, usecase.SendMessageInput{
		RecipientID: payload.RecipientID,
		Text:        payload.Text,
	})
	if err != nil {
		h.pushError(client, err)
		return
	}

	h.push(client, "message_sent", result)
}

func (h *WebSocketHandler) pushFeed(client *ws.Client, visible []*entity.Notification, hasMore bool) {
	h.push(client, "notification_feed", map[string]interface{}{
		"notifications": visible,
		"has_more":      hasMore,
	})
}

func (h *WebSocketHandler) push(client *ws.Client, frameType string, data interface{}) {
	frame := map[string]interface{}{
		"type":      frameType,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if data != nil {
		frame["data"] = data
	}

	frameJSON, err := json.Marshal(frame)
	if err != nil {
		logger.Error("websocket frame marshal: %v", err)
		return
	}

	select {
	case client.Send <- frameJSON:
	default:
		logger.Warn("Send buffer full for client %s, dropping %s frame", client.UserID, frameType)
	}
}

func (h *WebSocketHandler) pushError(client *ws.Client, err error) {
	message := "Internal error"
	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
	}

	h.push(client, "error", map[string]interface{}{
		"message": message,
	})
}
