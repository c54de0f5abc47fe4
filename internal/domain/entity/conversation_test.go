package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationIDIsSymmetric(t *testing.T) {
	assert.Equal(t, ConversationID("alice", "bob"), ConversationID("bob", "alice"))
}

func TestConversationIDOrdersParticipants(t *testing.T) {
	assert.Equal(t, "u1_u2", ConversationID("u1", "u2"))
	assert.Equal(t, "u1_u2", ConversationID("u2", "u1"))
}

func TestOtherParticipantInvertsConversationID(t *testing.T) {
	chatID := ConversationID("alice", "bob")

	other, ok := OtherParticipant(chatID, "alice")
	assert.True(t, ok)
	assert.Equal(t, "bob", other)

	other, ok = OtherParticipant(chatID, "bob")
	assert.True(t, ok)
	assert.Equal(t, "alice", other)
}

func TestOtherParticipantRejectsNonParticipant(t *testing.T) {
	chatID := ConversationID("alice", "bob")

	_, ok := OtherParticipant(chatID, "carol")
	assert.False(t, ok)
}
