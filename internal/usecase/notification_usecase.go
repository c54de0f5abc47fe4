package usecase

import (
	"context"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
	"github.com/storystove/devnet-sub000/internal/domain/repository"
	"github.com/storystove/devnet-sub000/internal/infrastructure/ratelimit"
	"github.com/storystove/devnet-sub000/pkg/errors"
	"github.com/storystove/devnet-sub000/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	rateLimiter      *ratelimit.RateLimiter
}

func NewNotificationUseCase(notificationRepo repository.NotificationRepository) *NotificationUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		rateLimiter:      rateLimiter,
	}
}

type NotificationPage struct {
	Items      []*entity.Notification `json:"items"`
	NextCursor string                 `json:"next_cursor,omitempty"`
	HasMore    bool                   `json:"has_more"`
}

// GetFeedHead is the one-shot form of the feed head: the newest pageSize
// notifications with a continuation cursor.
func (uc *NotificationUseCase) GetFeedHead(ctx context.Context, userID string, pageSize int) (*NotificationPage, error) {
	pageSize = clampPageSize(pageSize)

	items, err := uc.notificationRepo.GetHead(ctx, userID, pageSize)
	if err != nil {
		logger.Error("GetFeedHead: Failed to fetch head for user %s: %v", userID, err)
		return nil, err
	}

	return pageOf(items, pageSize), nil
}

// OpenLiveHead opens a live subscription on the newest pageSize
// notifications. Every store-side change re-delivers the session's full
// visible list (head window replaced, previously loaded pages preserved).
// The returned session serves LoadMoreIntoSession; the cancel releases the
// subscription and must be called exactly once by the owner.
func (uc *NotificationUseCase) OpenLiveHead(userID string, pageSize int, onChange func([]*entity.Notification, bool), onError func(error)) (*FeedSession, func()) {
	pageSize = clampPageSize(pageSize)
	session := NewFeedSession(pageSize)

	cancel := uc.notificationRepo.SubscribeHead(userID, pageSize, func(head []*entity.Notification) {
		visible := session.ApplyHead(head)
		onChange(visible, session.HasMore())
	}, onError)

	return session, cancel
}

// LoadMore fetches the next older page after cursor. One-shot, not live. The
// cursor may be stale relative to the live head; the page is still served
// best-effort and the session merge drops duplicates.
func (uc *NotificationUseCase) LoadMore(ctx context.Context, userID, cursor string, pageSize int) (*NotificationPage, error) {
	if cursor == "" {
		return nil, errors.BadRequest("Cursor is required", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(userID, "load_more")
	if !allowed {
		logger.Warn("LoadMore Rate Limited: User %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before loading more", waitTime)
	}

	pageSize = clampPageSize(pageSize)

	items, err := uc.notificationRepo.FetchPageAfter(ctx, userID, cursor, pageSize)
	if err != nil {
		logger.Error("LoadMore: Failed to fetch page for user %s after %s: %v", userID, cursor, err)
		return nil, err
	}

	return pageOf(items, pageSize), nil
}

// LoadMoreIntoSession continues a live feed session from its own cursor and
// merges the page in. Returns the new visible list and whether more remain.
func (uc *NotificationUseCase) LoadMoreIntoSession(ctx context.Context, userID string, session *FeedSession) ([]*entity.Notification, bool, error) {
	cursor, ok := session.Cursor()
	if !ok {
		return session.Visible(), false, nil
	}

	page, err := uc.LoadMore(ctx, userID, cursor, session.pageSize)
	if err != nil {
		return nil, false, err
	}

	visible := session.AppendPage(page.Items)
	return visible, session.HasMore(), nil
}

// MarkRead flips one notification's read flag to true. Idempotent: marking
// an already-read notification is a no-op.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, notificationID string) error {
	if notificationID == "" {
		return errors.BadRequest("Notification id is required", nil)
	}

	if err := uc.notificationRepo.MarkRead(ctx, userID, notificationID); err != nil {
		logger.Error("MarkRead: Failed to mark notification %s read for user %s: %v", notificationID, userID, err)
		return err
	}

	return nil
}

func pageOf(items []*entity.Notification, pageSize int) *NotificationPage {
	page := &NotificationPage{
		Items:   items,
		HasMore: len(items) == pageSize,
	}
	if len(items) > 0 {
		page.NextCursor = items[len(items)-1].ID
	}
	return page
}

func clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return defaultPageSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}
