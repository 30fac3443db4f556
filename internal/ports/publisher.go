package ports

// Message is an outbound notification for one or more connections.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Publisher delivers messages to connected players by connection id.
type Publisher interface {
	// Publish sends msg to every listed recipient. Unknown recipients are
	// skipped; the returned error reports recipients that could not be reached.
	Publish(recipients []string, msg Message) error
}
