package entity

import "time"

// Notification types in the product feed. Most are produced by other parts
// of the product; this core publishes dm notifications and flips read flags.
const (
	NotificationTypeFollow             = "follow"
	NotificationTypeDM                 = "dm"
	NotificationTypeLike               = "like"
	NotificationTypeComment            = "comment"
	NotificationTypeStartupJoinRequest = "startup_join_request"
)

type Notification struct {
	ID             string    `json:"id" firestore:"id"`
	Type           string    `json:"type" firestore:"type"`
	FromUserID     string    `json:"from_user_id" firestore:"fromUserId"`
	FromUserName   string    `json:"from_user_name,omitempty" firestore:"fromUserName,omitempty"`
	FromUserAvatar string    `json:"from_user_avatar,omitempty" firestore:"fromUserAvatar,omitempty"`
	Timestamp      time.Time `json:"timestamp" firestore:"timestamp"`
	Read           bool      `json:"read" firestore:"read"`
	Link           string    `json:"link,omitempty" firestore:"link,omitempty"`
	MessageSnippet string    `json:"message_snippet,omitempty" firestore:"messageSnippet,omitempty"`
	StartupName    string    `json:"startup_name,omitempty" firestore:"startupName,omitempty"`
}
