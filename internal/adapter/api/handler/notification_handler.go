package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storystove/devnet-sub000/internal/usecase"
	"github.com/storystove/devnet-sub000/pkg/response"
	"github.com/storystove/devnet-sub000/pkg/utils"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

// GetFeed returns the newest page of the caller's notification feed
func (h *NotificationHandler) GetFeed(c echo.Context) error {
	userID := c.Get("uid").(string)

	limit := utils.LimitParam(c, 20, 100)

	page, err := h.notificationUseCase.GetFeedHead(c.Request().Context(), userID, limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paged(c, page.Items, page.NextCursor, page.HasMore)
}

// LoadMore returns the next older page after the given cursor
func (h *NotificationHandler) LoadMore(c echo.Context) error {
	userID := c.Get("uid").(string)
	cursor := c.QueryParam("cursor")

	limit := utils.LimitParam(c, 20, 100)

	page, err := h.notificationUseCase.LoadMore(c.Request().Context(), userID, cursor, limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paged(c, page.Items, page.NextCursor, page.HasMore)
}

// MarkRead flips one notification's read flag
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	notificationID := c.Param("id")

	if err := h.notificationUseCase.MarkRead(c.Request().Context(), userID, notificationID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}
