package entity

// Message is a single chat message. Messages live in the realtime store,
// append-only; the store assigns the id and the timestamp. Ordering key is
// Timestamp (milliseconds), ties broken by store insertion order.
type Message struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}
