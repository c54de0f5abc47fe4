package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storystove/devnet-sub000/internal/usecase"
	"github.com/storystove/devnet-sub000/pkg/response"
	"github.com/storystove/devnet-sub000/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// SendMessage appends a message to the conversation with the counterpart
func (h *ChatHandler) SendMessage(c echo.Context) error {
	counterpartID := c.Param("counterpartId")
	userID := c.Get("uid").(string)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		RecipientID: counterpartID,
		Text:        req.Text,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

// GetMessages returns the newest messages of the conversation, oldest first
func (h *ChatHandler) GetMessages(c echo.Context) error {
	counterpartID := c.Param("counterpartId")
	userID := c.Get("uid").(string)

	limit := utils.LimitParam(c, 50, 100)

	messages, err := h.chatUseCase.GetMessages(c.Request().Context(), userID, counterpartID, limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// ListConversations returns the caller's conversation summaries
func (h *ChatHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	summaries, err := h.chatUseCase.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, summaries)
}

// MarkConversationRead resets the caller's unread counter for the conversation
func (h *ChatHandler) MarkConversationRead(c echo.Context) error {
	counterpartID := c.Param("counterpartId")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.MarkConversationRead(c.Request().Context(), userID, counterpartID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}
