package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
)

func notif(id string) *entity.Notification {
	return &entity.Notification{ID: id}
}

func ids(items []*entity.Notification) []string {
	out := make([]string, 0, len(items))
	for _, n := range items {
		out = append(out, n.ID)
	}
	return out
}

func TestFeedSessionHeadReplacesWholesale(t *testing.T) {
	session := NewFeedSession(2)

	visible := session.ApplyHead([]*entity.Notification{notif("n5"), notif("n4")})
	assert.Equal(t, []string{"n5", "n4"}, ids(visible))

	visible = session.ApplyHead([]*entity.Notification{notif("n6"), notif("n5")})
	assert.Equal(t, []string{"n6", "n5"}, ids(visible))
}

func TestFeedSessionPreservesLoadedPagesAcrossHeadUpdates(t *testing.T) {
	session := NewFeedSession(2)

	session.ApplyHead([]*entity.Notification{notif("n5"), notif("n4")})
	session.AppendPage([]*entity.Notification{notif("n3"), notif("n2")})

	// A new item arrives; the head window shifts, older pages stay.
	visible := session.ApplyHead([]*entity.Notification{notif("n6"), notif("n5")})
	assert.Equal(t, []string{"n6", "n5", "n3", "n2"}, ids(visible))
}

func TestFeedSessionDropsDuplicatesWhenHeadCatchesUp(t *testing.T) {
	session := NewFeedSession(3)

	session.ApplyHead([]*entity.Notification{notif("n5"), notif("n4"), notif("n3")})
	session.AppendPage([]*entity.Notification{notif("n2"), notif("n1"), notif("n0")})

	// n2 slides into the head window; the older copy must not show twice.
	visible := session.ApplyHead([]*entity.Notification{notif("n4"), notif("n3"), notif("n2")})
	assert.Equal(t, []string{"n4", "n3", "n2", "n1", "n0"}, ids(visible))
}

func TestFeedSessionCursorAnchorsAtOldestVisible(t *testing.T) {
	session := NewFeedSession(2)

	_, ok := session.Cursor()
	assert.False(t, ok)

	session.ApplyHead([]*entity.Notification{notif("n5"), notif("n4")})
	cursor, ok := session.Cursor()
	assert.True(t, ok)
	assert.Equal(t, "n4", cursor)

	session.AppendPage([]*entity.Notification{notif("n3"), notif("n2")})
	cursor, ok = session.Cursor()
	assert.True(t, ok)
	assert.Equal(t, "n2", cursor)
}

func TestFeedSessionShortPageExhaustsFeed(t *testing.T) {
	session := NewFeedSession(2)

	session.ApplyHead([]*entity.Notification{notif("n5"), notif("n4")})
	assert.True(t, session.HasMore())

	session.AppendPage([]*entity.Notification{notif("n3")})
	assert.False(t, session.HasMore())
}

func TestFeedSessionShortHeadMeansNoMore(t *testing.T) {
	session := NewFeedSession(5)

	session.ApplyHead([]*entity.Notification{notif("n2"), notif("n1")})
	assert.False(t, session.HasMore())
}
