package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"firebase.google.com/go/v4/db"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
	"github.com/storystove/devnet-sub000/internal/domain/repository"
	"github.com/storystove/devnet-sub000/pkg/errors"
	"github.com/storystove/devnet-sub000/pkg/logger"
)

// serverTimestamp is the Realtime Database sentinel that makes the server
// assign the write time, keeping message ordering independent of client clocks.
var serverTimestamp = map[string]string{".sv": "timestamp"}

type rtdbMessageRepository struct {
	client       *db.Client
	pollInterval time.Duration
}

// NewRTDBMessageRepository returns a MessageRepository backed by Firebase
// Realtime Database. The Admin SDK exposes no streaming listener, so
// SubscribeTail re-reads the ordered tail at pollInterval and emits a snapshot
// only when the window actually changed.
func NewRTDBMessageRepository(client *db.Client, pollInterval time.Duration) repository.MessageRepository {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &rtdbMessageRepository{
		client:       client,
		pollInterval: pollInterval,
	}
}

func messagesPath(conversationID string) string {
	return "messages/" + conversationID
}

func (r *rtdbMessageRepository) Append(ctx context.Context, conversationID string, senderID, text string) (string, error) {
	ref := r.client.NewRef(messagesPath(conversationID))

	newRef, err := ref.Push(ctx, map[string]interface{}{
		"senderId":  senderID,
		"text":      text,
		"timestamp": serverTimestamp,
	})
	if err != nil {
		return "", errors.Internal("Failed to append message", err)
	}

	return newRef.Key, nil
}

func (r *rtdbMessageRepository) GetTail(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error) {
	query := r.client.NewRef(messagesPath(conversationID)).OrderByChild("timestamp").LimitToLast(limit)

	nodes, err := query.GetOrdered(ctx)
	if err != nil {
		return nil, errors.Internal("Failed to read message tail", err)
	}

	messages := make([]*entity.Message, 0, len(nodes))
	for _, node := range nodes {
		var message entity.Message
		if err := node.Unmarshal(&message); err != nil {
			logger.Error("Failed to parse message %s in conversation %s: %v", node.Key(), conversationID, err)
			continue // Skip malformed records
		}
		message.ID = node.Key()
		messages = append(messages, &message)
	}

	// The query orders ascending by timestamp; push keys break ties in
	// insertion order. Keep the sort stable so the key order survives.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})

	return messages, nil
}

func (r *rtdbMessageRepository) SubscribeTail(conversationID string, limit int, onSnapshot func([]*entity.Message), onError func(error)) func() {
	ctx, stop := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()

		emitted := false
		var lastSig string

		for {
			messages, err := r.GetTail(ctx, conversationID, limit)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				onError(err)
			} else if sig := tailSignature(messages); !emitted || sig != lastSig {
				emitted = true
				lastSig = sig
				onSnapshot(messages)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(stop)
	}
}

// tailSignature fingerprints a tail window so unchanged polls emit nothing.
func tailSignature(messages []*entity.Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s@%d;", m.ID, m.Timestamp)
	}
	return b.String()
}
