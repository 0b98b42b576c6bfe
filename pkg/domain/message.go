package domain

// Message is an inbound chat event.
type Message struct {
	// SenderID identifies the user. Sessions are keyed by it.
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
	// FromBot marks messages authored by a bot account. They are never answered.
	FromBot bool `json:"bot,omitempty"`
}

// Reply is the single outbound answer to a Message.
type Reply struct {
	Text string `json:"reply"`
}

// Empty reports whether there is nothing to send back.
func (r Reply) Empty() bool {
	return r.Text == ""
}
