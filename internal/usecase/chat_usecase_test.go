package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
	"github.com/storystove/devnet-sub000/internal/domain/repository"
	ws "github.com/storystove/devnet-sub000/internal/infrastructure/websocket"
	"github.com/storystove/devnet-sub000/pkg/errors"
)

type fakeMessageRepo struct {
	appendErr error
	appended  []string
	messages  []*entity.Message
}

func (f *fakeMessageRepo) Append(ctx context.Context, conversationID, senderID, text string) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	f.appended = append(f.appended, conversationID+"|"+senderID+"|"+text)
	return "m1", nil
}

func (f *fakeMessageRepo) GetTail(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error) {
	if limit < len(f.messages) {
		return f.messages[len(f.messages)-limit:], nil
	}
	return f.messages, nil
}

func (f *fakeMessageRepo) SubscribeTail(conversationID string, limit int, onSnapshot func([]*entity.Message), onError func(error)) func() {
	onSnapshot(f.messages)
	return func() {}
}

type fakeConversationRepo struct {
	writes []repository.SummaryWrite
	resets []string
}

func (f *fakeConversationRepo) UpsertSummary(ctx context.Context, write repository.SummaryWrite) error {
	f.writes = append(f.writes, write)
	return nil
}

func (f *fakeConversationRepo) ResetUnread(ctx context.Context, ownerID, chatID string) error {
	f.resets = append(f.resets, ownerID+"|"+chatID)
	return nil
}

func (f *fakeConversationRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.ConversationSummary, error) {
	return nil, nil
}

func (f *fakeConversationRepo) SubscribeByOwner(ownerID string, onSnapshot func([]*entity.ConversationSummary), onError func(error)) func() {
	return func() {}
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, errors.NotFound("User", nil)
}

func newTestChatUseCase(messageRepo *fakeMessageRepo, conversationRepo *fakeConversationRepo, notificationRepo *fakeNotificationRepo) *ChatUseCase {
	userRepo := &fakeUserRepo{users: map[string]*entity.User{
		"alice": {ID: "alice", Username: "Alice", AvatarURL: "https://img/alice.png"},
		"bob":   {ID: "bob", Username: "Bob", AvatarURL: "https://img/bob.png"},
	}}
	return NewChatUseCase(messageRepo, conversationRepo, notificationRepo, userRepo, ws.NewManager())
}

func TestSendMessageSyncsBothSummaries(t *testing.T) {
	messageRepo := &fakeMessageRepo{}
	conversationRepo := &fakeConversationRepo{}
	uc := newTestChatUseCase(messageRepo, conversationRepo, &fakeNotificationRepo{})

	result, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		RecipientID: "bob",
		Text:        "hello",
	})

	assert.NoError(t, err)
	assert.Equal(t, "alice_bob", result.ChatID)
	assert.Equal(t, "m1", result.MessageID)
	assert.Equal(t, []string{"alice_bob|alice|hello"}, messageRepo.appended)

	if assert.Len(t, conversationRepo.writes, 2) {
		sender := conversationRepo.writes[0]
		assert.Equal(t, "alice", sender.OwnerID)
		assert.Equal(t, "bob", sender.CounterpartID)
		assert.Equal(t, "Bob", sender.CounterpartName)
		assert.Equal(t, "hello", sender.LastMessage)
		assert.False(t, sender.IncrementUnread)

		recipient := conversationRepo.writes[1]
		assert.Equal(t, "bob", recipient.OwnerID)
		assert.Equal(t, "alice", recipient.CounterpartID)
		assert.Equal(t, "Alice", recipient.CounterpartName)
		assert.Equal(t, "hello", recipient.LastMessage)
		assert.True(t, recipient.IncrementUnread)
	}
}

func TestSendMessagePublishesDMNotification(t *testing.T) {
	notificationRepo := &fakeNotificationRepo{}
	uc := newTestChatUseCase(&fakeMessageRepo{}, &fakeConversationRepo{}, notificationRepo)

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		RecipientID: "bob",
		Text:        "hello",
	})

	assert.NoError(t, err)
	if assert.Len(t, notificationRepo.created, 1) {
		notification := notificationRepo.created[0]
		assert.NotEmpty(t, notification.ID)
		assert.Equal(t, entity.NotificationTypeDM, notification.Type)
		assert.Equal(t, "alice", notification.FromUserID)
		assert.Equal(t, "Alice", notification.FromUserName)
		assert.Equal(t, "/messages/alice_bob", notification.Link)
		assert.Equal(t, "hello", notification.MessageSnippet)
	}
}

func TestSendMessageRejectsEmptyText(t *testing.T) {
	messageRepo := &fakeMessageRepo{}
	conversationRepo := &fakeConversationRepo{}
	uc := newTestChatUseCase(messageRepo, conversationRepo, &fakeNotificationRepo{})

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		RecipientID: "bob",
		Text:        "   ",
	})

	assert.True(t, errors.Is(err, "BAD_REQUEST"))
	assert.Empty(t, messageRepo.appended)
	assert.Empty(t, conversationRepo.writes)
}

func TestSendMessageRejectsSelfMessage(t *testing.T) {
	uc := newTestChatUseCase(&fakeMessageRepo{}, &fakeConversationRepo{}, &fakeNotificationRepo{})

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		RecipientID: "alice",
		Text:        "hi me",
	})

	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestSendMessageSkipsSyncWhenAppendFails(t *testing.T) {
	messageRepo := &fakeMessageRepo{appendErr: errors.Internal("store down", nil)}
	conversationRepo := &fakeConversationRepo{}
	uc := newTestChatUseCase(messageRepo, conversationRepo, &fakeNotificationRepo{})

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		RecipientID: "bob",
		Text:        "hello",
	})

	assert.Error(t, err)
	assert.Empty(t, conversationRepo.writes)
}

func TestSendMessageToleratesMissingProfile(t *testing.T) {
	messageRepo := &fakeMessageRepo{}
	conversationRepo := &fakeConversationRepo{}
	userRepo := &fakeUserRepo{users: map[string]*entity.User{}}
	uc := NewChatUseCase(messageRepo, conversationRepo, &fakeNotificationRepo{}, userRepo, ws.NewManager())

	result, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		RecipientID: "bob",
		Text:        "hello",
	})

	assert.NoError(t, err)
	assert.Equal(t, "alice_bob", result.ChatID)
	if assert.Len(t, conversationRepo.writes, 2) {
		assert.Empty(t, conversationRepo.writes[0].CounterpartName)
		assert.Empty(t, conversationRepo.writes[1].CounterpartName)
	}
}

func TestMarkConversationReadResetsOwnCounterOnly(t *testing.T) {
	conversationRepo := &fakeConversationRepo{}
	uc := newTestChatUseCase(&fakeMessageRepo{}, conversationRepo, &fakeNotificationRepo{})

	err := uc.MarkConversationRead(context.Background(), "bob", "alice")

	assert.NoError(t, err)
	assert.Equal(t, []string{"bob|alice_bob"}, conversationRepo.resets)
}

func TestGetMessagesClampsLimit(t *testing.T) {
	messageRepo := &fakeMessageRepo{messages: []*entity.Message{
		{ID: "m1", SenderID: "alice", Text: "one"},
		{ID: "m2", SenderID: "bob", Text: "two"},
		{ID: "m3", SenderID: "alice", Text: "three"},
	}}
	uc := newTestChatUseCase(messageRepo, &fakeConversationRepo{}, &fakeNotificationRepo{})

	messages, err := uc.GetMessages(context.Background(), "alice", "bob", 2)
	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, "m2", messages[0].ID)
	assert.Equal(t, "m3", messages[1].ID)
}

func TestSubscribeMessagesRejectsSelfConversation(t *testing.T) {
	uc := newTestChatUseCase(&fakeMessageRepo{}, &fakeConversationRepo{}, &fakeNotificationRepo{})

	_, err := uc.SubscribeMessages("alice", "alice", 10, func([]*entity.Message) {}, func(error) {})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}
