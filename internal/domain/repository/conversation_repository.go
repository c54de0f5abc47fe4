package repository

import (
	"context"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
)

// SummaryWrite is one participant-side upsert of a conversation summary.
// IncrementUnread selects the recipient semantics: the store increments
// unreadCount atomically server-side; when false the counter is left alone.
type SummaryWrite struct {
	OwnerID           string
	ChatID            string
	CounterpartID     string
	CounterpartName   string
	CounterpartAvatar string
	LastMessage       string
	IncrementUnread   bool
}

// ConversationRepository is the document store holding per-participant
// conversation summaries under users/{uid}/chats/{chatId}.
type ConversationRepository interface {
	// UpsertSummary merge-writes one summary record, preserving fields it does
	// not set. lastMessageAt is assigned server-side.
	UpsertSummary(ctx context.Context, write SummaryWrite) error

	// ResetUnread sets the owner's unreadCount for the conversation to zero.
	ResetUnread(ctx context.Context, ownerID, chatID string) error

	// ListByOwner returns the owner's summaries, newest activity first.
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.ConversationSummary, error)

	// SubscribeByOwner delivers the owner's full summary list, newest activity
	// first, on every change. Same replace-wholesale contract as message tails.
	SubscribeByOwner(ownerID string, onSnapshot func([]*entity.ConversationSummary), onError func(error)) (cancel func())
}
