package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
	"github.com/storystove/devnet-sub000/internal/domain/repository"
	"github.com/storystove/devnet-sub000/internal/infrastructure/ratelimit"
	ws "github.com/storystove/devnet-sub000/internal/infrastructure/websocket"
	"github.com/storystove/devnet-sub000/pkg/errors"
	"github.com/storystove/devnet-sub000/pkg/logger"
)

const (
	defaultTailLimit = 50
	maxTailLimit     = 100
	maxSnippetLen    = 80
)

type ChatUseCase struct {
	messageRepo      repository.MessageRepository
	conversationRepo repository.ConversationRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	wsManager        *ws.Manager
	rateLimiter      *ratelimit.RateLimiter
}

func NewChatUseCase(
	messageRepo repository.MessageRepository,
	conversationRepo repository.ConversationRepository,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	wsManager *ws.Manager,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		wsManager:        wsManager,
		rateLimiter:      rateLimiter,
	}
}

type SendMessageInput struct {
	RecipientID string
	Text        string
}

type SendMessageResult struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
}

// SendMessage appends a message to the conversation's log and fans the
// denormalized summary out to both participants. The summary sync runs only
// after the append is durable; an append failure surfaces to the caller with
// nothing written. No retry — a caller retrying a failed send may duplicate
// the message, which is accepted here.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*SendMessageResult, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.BadRequest("Message text cannot be empty", nil)
	}
	if input.RecipientID == "" {
		return nil, errors.BadRequest("Recipient is required", nil)
	}
	if senderID == input.RecipientID {
		logger.Warn("SendMessage: User %s attempted to message themselves", senderID)
		return nil, errors.BadRequest("You cannot send a message to yourself", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		logger.Warn("SendMessage Rate Limited: User %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	chatID := entity.ConversationID(senderID, input.RecipientID)

	messageID, err := uc.messageRepo.Append(ctx, chatID, senderID, text)
	if err != nil {
		logger.Error("SendMessage: Failed to append message to conversation %s: %v", chatID, err)
		return nil, err
	}

	if err := uc.syncSummaries(ctx, chatID, senderID, input.RecipientID, text); err != nil {
		// The message itself is durable; the stale summary heals on the next
		// successful send. Still surfaced so the caller can log or retry.
		logger.Error("SendMessage: Summary sync failed for conversation %s: %v", chatID, err)
		return nil, err
	}

	uc.publishDMNotification(ctx, chatID, senderID, input.RecipientID, text)
	uc.notifyChatListUpdate(input.RecipientID, chatID, senderID, text)

	return &SendMessageResult{
		ChatID:    chatID,
		MessageID: messageID,
	}, nil
}

// syncSummaries performs the two per-participant summary upserts. The writes
// are independent: no cross-record atomicity, and a failure between them
// leaves one record stale. The sender's own unread counter is never touched;
// the recipient's is incremented atomically by the store.
func (uc *ChatUseCase) syncSummaries(ctx context.Context, chatID, senderID, recipientID, text string) error {
	senderName, senderAvatar := uc.displayFields(ctx, senderID)
	recipientName, recipientAvatar := uc.displayFields(ctx, recipientID)

	if err := uc.conversationRepo.UpsertSummary(ctx, repository.SummaryWrite{
		OwnerID:           senderID,
		ChatID:            chatID,
		CounterpartID:     recipientID,
		CounterpartName:   recipientName,
		CounterpartAvatar: recipientAvatar,
		LastMessage:       text,
		IncrementUnread:   false,
	}); err != nil {
		return err
	}

	if err := uc.conversationRepo.UpsertSummary(ctx, repository.SummaryWrite{
		OwnerID:           recipientID,
		ChatID:            chatID,
		CounterpartID:     senderID,
		CounterpartName:   senderName,
		CounterpartAvatar: senderAvatar,
		LastMessage:       text,
		IncrementUnread:   true,
	}); err != nil {
		return err
	}

	return nil
}

// displayFields resolves counterpart display info. A missing profile is not
// fatal to a send; the summary just carries empty display fields.
func (uc *ChatUseCase) displayFields(ctx context.Context, userID string) (string, string) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("SendMessage: Profile %s not found for summary display fields: %v", userID, err)
		return "", ""
	}
	return user.Username, user.AvatarURL
}

// publishDMNotification drops a dm notification into the recipient's feed.
// Best-effort: the message and summaries are already durable, so a failure
// here is logged and the send still succeeds.
func (uc *ChatUseCase) publishDMNotification(ctx context.Context, chatID, senderID, recipientID, text string) {
	senderName, senderAvatar := uc.displayFields(ctx, senderID)

	notification := &entity.Notification{
		ID:             uuid.New().String(),
		Type:           entity.NotificationTypeDM,
		FromUserID:     senderID,
		FromUserName:   senderName,
		FromUserAvatar: senderAvatar,
		Link:           "/messages/" + chatID,
		MessageSnippet: snippet(text, maxSnippetLen),
	}

	if err := uc.notificationRepo.Create(ctx, recipientID, notification); err != nil {
		logger.Error("SendMessage: Failed to publish dm notification for user %s: %v", recipientID, err)
	}
}

// snippet truncates text on a rune boundary for feed display.
func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

func (uc *ChatUseCase) notifyChatListUpdate(recipientID, chatID, senderID, text string) {
	update := map[string]interface{}{
		"type":         "chat_list_update",
		"chat_id":      chatID,
		"sender_id":    senderID,
		"last_message": text,
	}

	updateJSON, err := json.Marshal(update)
	if err != nil {
		logger.Error("SendMessage: Failed to marshal chat list update: %v", err)
		return
	}
	uc.wsManager.SendToUser(recipientID, updateJSON)
}

// GetMessages is the one-shot form of the message tail: the newest limit
// messages of the conversation with counterpartID, ascending by timestamp.
func (uc *ChatUseCase) GetMessages(ctx context.Context, userID, counterpartID string, limit int) ([]*entity.Message, error) {
	if err := validateCounterpart(userID, counterpartID); err != nil {
		return nil, err
	}

	chatID := entity.ConversationID(userID, counterpartID)
	return uc.messageRepo.GetTail(ctx, chatID, clampTailLimit(limit))
}

// SubscribeMessages opens a live tail subscription on the conversation with
// counterpartID. The window size is fixed at subscribe time; every snapshot
// replaces the previous one wholesale. The caller owns the returned cancel
// and must invoke it when the view goes away.
func (uc *ChatUseCase) SubscribeMessages(userID, counterpartID string, limit int, onSnapshot func([]*entity.Message), onError func(error)) (func(), error) {
	if err := validateCounterpart(userID, counterpartID); err != nil {
		return nil, err
	}

	chatID := entity.ConversationID(userID, counterpartID)
	return uc.messageRepo.SubscribeTail(chatID, clampTailLimit(limit), onSnapshot, onError), nil
}

// ListConversations returns the user's summary list, newest activity first.
func (uc *ChatUseCase) ListConversations(ctx context.Context, userID string) ([]*entity.ConversationSummary, error) {
	summaries, err := uc.conversationRepo.ListByOwner(ctx, userID)
	if err != nil {
		logger.Error("ListConversations: Failed to list summaries for user %s: %v", userID, err)
		return nil, err
	}
	return summaries, nil
}

// SubscribeConversations opens a live subscription on the user's summary
// list. Same full-replace contract as message tails.
func (uc *ChatUseCase) SubscribeConversations(userID string, onSnapshot func([]*entity.ConversationSummary), onError func(error)) func() {
	return uc.conversationRepo.SubscribeByOwner(userID, onSnapshot, onError)
}

// MarkConversationRead resets the caller's unread counter for the
// conversation with counterpartID to zero. Whether opening a conversation
// triggers this is the product layer's call; the core never resets implicitly.
func (uc *ChatUseCase) MarkConversationRead(ctx context.Context, userID, counterpartID string) error {
	if err := validateCounterpart(userID, counterpartID); err != nil {
		return err
	}

	chatID := entity.ConversationID(userID, counterpartID)
	if err := uc.conversationRepo.ResetUnread(ctx, userID, chatID); err != nil {
		logger.Error("MarkConversationRead: Failed to reset unread for user %s chat %s: %v", userID, chatID, err)
		return err
	}

	return nil
}

func validateCounterpart(userID, counterpartID string) error {
	if counterpartID == "" {
		return errors.BadRequest("Counterpart is required", nil)
	}
	if userID == counterpartID {
		return errors.BadRequest("A conversation needs two distinct participants", nil)
	}
	return nil
}

func clampTailLimit(limit int) int {
	if limit <= 0 {
		return defaultTailLimit
	}
	if limit > maxTailLimit {
		return maxTailLimit
	}
	return limit
}
