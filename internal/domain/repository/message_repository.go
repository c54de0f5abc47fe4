package repository

import (
	"context"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
)

// MessageRepository is the realtime ordered append-log store holding message
// bodies, keyed by conversation id. It is the source of truth for messages.
type MessageRepository interface {
	// Append adds a message to the conversation's log and returns the
	// store-assigned id. The store assigns the timestamp server-side.
	Append(ctx context.Context, conversationID string, senderID, text string) (string, error)

	// GetTail returns the newest limit messages, ascending by timestamp.
	GetTail(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error)

	// SubscribeTail establishes a live subscription on the newest limit
	// messages. onSnapshot receives the complete tail window, ascending by
	// timestamp, every time the window changes; each invocation replaces the
	// previous one wholesale. Establishment and stream failures are delivered
	// through onError. The returned cancel releases the subscription and is
	// safe to call more than once.
	SubscribeTail(conversationID string, limit int, onSnapshot func([]*entity.Message), onError func(error)) (cancel func())
}
