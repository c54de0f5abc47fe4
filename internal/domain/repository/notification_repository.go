package repository

import (
	"context"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
)

// NotificationRepository is the document store holding per-user notifications
// under users/{uid}/notifications, ordered by timestamp descending.
type NotificationRepository interface {
	// GetHead returns the newest limit notifications.
	GetHead(ctx context.Context, userID string, limit int) ([]*entity.Notification, error)

	// SubscribeHead delivers the newest limit notifications on every change,
	// replacing the previous snapshot wholesale.
	SubscribeHead(userID string, limit int, onSnapshot func([]*entity.Notification), onError func(error)) (cancel func())

	// FetchPageAfter returns up to limit notifications strictly older than the
	// one identified by cursor (a notification id). A short page means no
	// further pages remain.
	FetchPageAfter(ctx context.Context, userID, cursor string, limit int) ([]*entity.Notification, error)

	// MarkRead sets read=true on one notification. Idempotent.
	MarkRead(ctx context.Context, userID, notificationID string) error

	// Create stores a new notification under the user's feed. The caller
	// assigns the id; the store assigns the timestamp server-side.
	Create(ctx context.Context, userID string, notification *entity.Notification) error
}
