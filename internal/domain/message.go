package domain

// ChatMessage is one message as rendered in a conversation. Ordering is
// implicit: position within the session's sequence is the order of arrival.
// Messages are never mutated or deleted by this subsystem.
type ChatMessage struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Text      string `json:"text"`
}
