package usecase

import (
	"sync"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
)

// FeedSession tracks what one subscriber of a notification feed currently
// sees: the live head window plus any manually loaded older pages. The live
// head replaces only the head on every push; older pages survive the update,
// de-duplicated by id. Items that slid out of the head window without ever
// being paged in may leave a gap until the next loadMore — accepted, the head
// stays authoritative for freshness.
type FeedSession struct {
	mu        sync.Mutex
	pageSize  int
	head      []*entity.Notification
	older     []*entity.Notification
	exhausted bool
}

func NewFeedSession(pageSize int) *FeedSession {
	return &FeedSession{pageSize: pageSize}
}

// ApplyHead installs a fresh head snapshot and returns the visible list.
func (s *FeedSession) ApplyHead(head []*entity.Notification) []*entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.head = head

	seen := make(map[string]bool, len(head))
	for _, n := range head {
		seen[n.ID] = true
	}

	kept := s.older[:0]
	for _, n := range s.older {
		if !seen[n.ID] {
			kept = append(kept, n)
		}
	}
	s.older = kept

	return s.visibleLocked()
}

// AppendPage merges a loadMore result and returns the visible list. A page
// shorter than the session's page size marks the feed exhausted.
func (s *FeedSession) AppendPage(items []*entity.Notification) []*entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.head)+len(s.older))
	for _, n := range s.head {
		seen[n.ID] = true
	}
	for _, n := range s.older {
		seen[n.ID] = true
	}

	for _, n := range items {
		if !seen[n.ID] {
			s.older = append(s.older, n)
		}
	}

	if len(items) < s.pageSize {
		s.exhausted = true
	}

	return s.visibleLocked()
}

// Visible returns the current list: head window first, then preserved older
// pages, newest first throughout.
func (s *FeedSession) Visible() []*entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

func (s *FeedSession) visibleLocked() []*entity.Notification {
	visible := make([]*entity.Notification, 0, len(s.head)+len(s.older))
	visible = append(visible, s.head...)
	visible = append(visible, s.older...)
	return visible
}

// Cursor returns the id of the oldest visible item, the anchor for the next
// loadMore. ok is false while the feed is empty.
func (s *FeedSession) Cursor() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.older) > 0 {
		return s.older[len(s.older)-1].ID, true
	}
	if len(s.head) > 0 {
		return s.head[len(s.head)-1].ID, true
	}
	return "", false
}

// HasMore reports whether another page may exist. It is optimistic until a
// short page proves the feed exhausted.
func (s *FeedSession) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exhausted {
		return false
	}
	if len(s.older) == 0 && len(s.head) < s.pageSize {
		return false
	}
	return true
}
