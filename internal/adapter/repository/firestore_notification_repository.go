package repository

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
	"github.com/storystove/devnet-sub000/internal/domain/repository"
	"github.com/storystove/devnet-sub000/pkg/errors"
	"github.com/storystove/devnet-sub000/pkg/logger"
)

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) collection(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection("notifications")
}

func (r *firestoreNotificationRepository) headQuery(userID string, limit int) firestore.Query {
	return r.collection(userID).OrderBy("timestamp", firestore.Desc).Limit(limit)
}

func (r *firestoreNotificationRepository) GetHead(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	iter := r.headQuery(userID, limit).Documents(ctx)
	defer iter.Stop()
	return collectNotifications(iter, userID)
}

func (r *firestoreNotificationRepository) SubscribeHead(userID string, limit int, onSnapshot func([]*entity.Notification), onError func(error)) func() {
	ctx, stop := context.WithCancel(context.Background())
	snapshots := r.headQuery(userID, limit).Snapshots(ctx)

	go func() {
		defer snapshots.Stop()

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				onError(errors.Internal("Notification subscription failed", err))
				return
			}

			notifications, err := collectNotifications(snap.Documents, userID)
			if err != nil {
				onError(err)
				continue
			}

			onSnapshot(notifications)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(stop)
	}
}

func (r *firestoreNotificationRepository) FetchPageAfter(ctx context.Context, userID, cursor string, limit int) ([]*entity.Notification, error) {
	cursorDoc, err := r.collection(userID).Doc(cursor).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Notification cursor", err)
		}
		return nil, errors.Internal("Failed to resolve notification cursor", err)
	}

	query := r.collection(userID).
		OrderBy("timestamp", firestore.Desc).
		StartAfter(cursorDoc).
		Limit(limit)

	iter := query.Documents(ctx)
	defer iter.Stop()
	return collectNotifications(iter, userID)
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	_, err := r.collection(userID).Doc(notificationID).Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Notification", err)
		}
		return errors.Internal("Failed to mark notification as read", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, userID string, notification *entity.Notification) error {
	data := map[string]interface{}{
		"type":       notification.Type,
		"fromUserId": notification.FromUserID,
		"timestamp":  firestore.ServerTimestamp,
		"read":       false,
	}
	if notification.FromUserName != "" {
		data["fromUserName"] = notification.FromUserName
	}
	if notification.FromUserAvatar != "" {
		data["fromUserAvatar"] = notification.FromUserAvatar
	}
	if notification.Link != "" {
		data["link"] = notification.Link
	}
	if notification.MessageSnippet != "" {
		data["messageSnippet"] = notification.MessageSnippet
	}
	if notification.StartupName != "" {
		data["startupName"] = notification.StartupName
	}

	if _, err := r.collection(userID).Doc(notification.ID).Set(ctx, data); err != nil {
		return errors.Internal("Failed to create notification", err)
	}

	return nil
}

func collectNotifications(iter *firestore.DocumentIterator, userID string) ([]*entity.Notification, error) {
	var notifications []*entity.Notification
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating notifications for user %s: %v", userID, err)
			return nil, errors.Internal("Failed to iterate notifications", err)
		}

		var notification entity.Notification
		if err := doc.DataTo(&notification); err != nil {
			logger.Error("Error parsing notification %s for user %s: %v", doc.Ref.ID, userID, err)
			continue // Skip malformed documents
		}
		notification.ID = doc.Ref.ID
		notifications = append(notifications, &notification)
	}

	return notifications, nil
}
