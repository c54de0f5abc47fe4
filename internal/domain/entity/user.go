package entity

// User carries the display fields this core needs to populate conversation
// summaries. Profile management itself lives outside the messaging core.
type User struct {
	ID        string `json:"id" firestore:"id"`
	Username  string `json:"username" firestore:"username"`
	AvatarURL string `json:"avatar_url,omitempty" firestore:"avatarUrl,omitempty"`
}
