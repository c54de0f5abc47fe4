package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
	"github.com/storystove/devnet-sub000/pkg/errors"
)

// fakeNotificationRepo serves a fixed feed, newest first.
type fakeNotificationRepo struct {
	feed      []*entity.Notification
	created   []*entity.Notification
	markCalls []string
	cancelled int

	onSnapshot func([]*entity.Notification)
}

func (f *fakeNotificationRepo) GetHead(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	if limit > len(f.feed) {
		limit = len(f.feed)
	}
	return f.feed[:limit], nil
}

func (f *fakeNotificationRepo) SubscribeHead(userID string, limit int, onSnapshot func([]*entity.Notification), onError func(error)) func() {
	f.onSnapshot = onSnapshot
	head, _ := f.GetHead(context.Background(), userID, limit)
	onSnapshot(head)
	return func() { f.cancelled++ }
}

func (f *fakeNotificationRepo) FetchPageAfter(ctx context.Context, userID, cursor string, limit int) ([]*entity.Notification, error) {
	start := -1
	for i, n := range f.feed {
		if n.ID == cursor {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, errors.NotFound("Notification", nil)
	}
	end := start + limit
	if end > len(f.feed) {
		end = len(f.feed)
	}
	return f.feed[start:end], nil
}

func (f *fakeNotificationRepo) Create(ctx context.Context, userID string, notification *entity.Notification) error {
	f.created = append(f.created, notification)
	return nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, userID, notificationID string) error {
	f.markCalls = append(f.markCalls, notificationID)
	for _, n := range f.feed {
		if n.ID == notificationID {
			n.Read = true
		}
	}
	return nil
}

func feedOf(ids ...string) []*entity.Notification {
	feed := make([]*entity.Notification, 0, len(ids))
	for _, id := range ids {
		feed = append(feed, &entity.Notification{ID: id})
	}
	return feed
}

func TestGetFeedHeadPaginates(t *testing.T) {
	repo := &fakeNotificationRepo{feed: feedOf("n5", "n4", "n3", "n2", "n1")}
	uc := NewNotificationUseCase(repo)

	page, err := uc.GetFeedHead(context.Background(), "alice", 2)

	assert.NoError(t, err)
	assert.Equal(t, []string{"n5", "n4"}, ids(page.Items))
	assert.Equal(t, "n4", page.NextCursor)
	assert.True(t, page.HasMore)
}

func TestLoadMoreRequiresCursor(t *testing.T) {
	uc := NewNotificationUseCase(&fakeNotificationRepo{})

	_, err := uc.LoadMore(context.Background(), "alice", "", 10)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestLoadMoreShortPageMeansNoMore(t *testing.T) {
	repo := &fakeNotificationRepo{feed: feedOf("n3", "n2", "n1")}
	uc := NewNotificationUseCase(repo)

	page, err := uc.LoadMore(context.Background(), "alice", "n2", 5)

	assert.NoError(t, err)
	assert.Equal(t, []string{"n1"}, ids(page.Items))
	assert.False(t, page.HasMore)
}

func TestOpenLiveHeadDeliversAndPreservesPages(t *testing.T) {
	repo := &fakeNotificationRepo{feed: feedOf("n5", "n4", "n3", "n2", "n1")}
	uc := NewNotificationUseCase(repo)

	var gotVisible []*entity.Notification
	var gotHasMore bool
	session, cancel := uc.OpenLiveHead("alice", 2, func(visible []*entity.Notification, hasMore bool) {
		gotVisible = visible
		gotHasMore = hasMore
	}, func(error) {})
	defer cancel()

	assert.Equal(t, []string{"n5", "n4"}, ids(gotVisible))
	assert.True(t, gotHasMore)

	visible, hasMore, err := uc.LoadMoreIntoSession(context.Background(), "alice", session)
	assert.NoError(t, err)
	assert.Equal(t, []string{"n5", "n4", "n3", "n2"}, ids(visible))
	assert.True(t, hasMore)

	// A newer item pushes the head forward; loaded pages stay visible.
	repo.onSnapshot(feedOf("n6", "n5"))
	assert.Equal(t, []string{"n6", "n5", "n3", "n2"}, ids(gotVisible))
}

func TestOpenLiveHeadCancelReleasesSubscription(t *testing.T) {
	repo := &fakeNotificationRepo{feed: feedOf("n1")}
	uc := NewNotificationUseCase(repo)

	_, cancel := uc.OpenLiveHead("alice", 10, func([]*entity.Notification, bool) {}, func(error) {})
	cancel()

	assert.Equal(t, 1, repo.cancelled)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	repo := &fakeNotificationRepo{feed: feedOf("n1")}
	uc := NewNotificationUseCase(repo)

	assert.NoError(t, uc.MarkRead(context.Background(), "alice", "n1"))
	assert.NoError(t, uc.MarkRead(context.Background(), "alice", "n1"))
	assert.True(t, repo.feed[0].Read)
}

func TestMarkReadRequiresID(t *testing.T) {
	uc := NewNotificationUseCase(&fakeNotificationRepo{})

	err := uc.MarkRead(context.Background(), "alice", "")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}
