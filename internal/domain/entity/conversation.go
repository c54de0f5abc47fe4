package entity

import (
	"strings"
	"time"
)

// ConversationID derives the canonical id for a two-party conversation.
// It is symmetric: ConversationID(a, b) == ConversationID(b, a).
func ConversationID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

// OtherParticipant recovers the counterpart from a conversation id, given one
// known participant. It is the inverse of ConversationID and must stay in sync
// with its encoding.
func OtherParticipant(conversationID, self string) (string, bool) {
	if rest, ok := strings.CutPrefix(conversationID, self+"_"); ok {
		return rest, true
	}
	if rest, ok := strings.CutSuffix(conversationID, "_"+self); ok {
		return rest, true
	}
	return "", false
}

// ConversationSummary is the denormalized per-participant cache of a
// conversation's latest state. Two instances exist per conversation, one under
// each participant; they are caches, not the source of truth for messages.
type ConversationSummary struct {
	ChatID            string    `json:"chat_id" firestore:"chatId"`
	CounterpartID     string    `json:"counterpart_id" firestore:"counterpartId"`
	CounterpartName   string    `json:"counterpart_name,omitempty" firestore:"counterpartName,omitempty"`
	CounterpartAvatar string    `json:"counterpart_avatar,omitempty" firestore:"counterpartAvatar,omitempty"`
	LastMessage       string    `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt     time.Time `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount       int       `json:"unread_count" firestore:"unreadCount"`
}
