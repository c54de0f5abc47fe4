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

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) summaryDoc(ownerID, chatID string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(ownerID).Collection("chats").Doc(chatID)
}

func (r *firestoreConversationRepository) summaryQuery(ownerID string) firestore.Query {
	return r.client.Collection("users").Doc(ownerID).Collection("chats").
		OrderBy("lastMessageAt", firestore.Desc)
}

func (r *firestoreConversationRepository) UpsertSummary(ctx context.Context, write repository.SummaryWrite) error {
	data := map[string]interface{}{
		"chatId":            write.ChatID,
		"counterpartId":     write.CounterpartID,
		"counterpartName":   write.CounterpartName,
		"counterpartAvatar": write.CounterpartAvatar,
		"lastMessage":       write.LastMessage,
		"lastMessageAt":     firestore.ServerTimestamp,
	}
	if write.IncrementUnread {
		// Atomic server-side increment; a read-then-write here would lose
		// counts under concurrent senders.
		data["unreadCount"] = firestore.Increment(1)
	}

	_, err := r.summaryDoc(write.OwnerID, write.ChatID).Set(ctx, data, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to upsert conversation summary", err)
	}

	return nil
}

func (r *firestoreConversationRepository) ResetUnread(ctx context.Context, ownerID, chatID string) error {
	_, err := r.summaryDoc(ownerID, chatID).Set(ctx, map[string]interface{}{
		"unreadCount": 0,
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to reset unread count", err)
	}

	return nil
}

func (r *firestoreConversationRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.ConversationSummary, error) {
	iter := r.summaryQuery(ownerID).Documents(ctx)
	defer iter.Stop()

	var summaries []*entity.ConversationSummary
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while listing summaries for user %s: %v", ownerID, err)
			return nil, errors.Internal("Failed to list conversation summaries", err)
		}

		var summary entity.ConversationSummary
		if err := doc.DataTo(&summary); err != nil {
			logger.Error("Error parsing summary %s for user %s: %v", doc.Ref.ID, ownerID, err)
			continue // Skip bad data instead of failing
		}
		summary.ChatID = doc.Ref.ID
		summaries = append(summaries, &summary)
	}

	return summaries, nil
}

func (r *firestoreConversationRepository) SubscribeByOwner(ownerID string, onSnapshot func([]*entity.ConversationSummary), onError func(error)) func() {
	ctx, stop := context.WithCancel(context.Background())
	snapshots := r.summaryQuery(ownerID).Snapshots(ctx)

	go func() {
		defer snapshots.Stop()

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				onError(errors.Internal("Conversation summary subscription failed", err))
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				onError(errors.Internal("Failed to read summary snapshot", err))
				continue
			}

			summaries := make([]*entity.ConversationSummary, 0, len(docs))
			for _, doc := range docs {
				var summary entity.ConversationSummary
				if err := doc.DataTo(&summary); err != nil {
					logger.Error("Error parsing summary %s for user %s: %v", doc.Ref.ID, ownerID, err)
					continue
				}
				summary.ChatID = doc.Ref.ID
				summaries = append(summaries, &summary)
			}

			onSnapshot(summaries)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(stop)
	}
}
