package instagram

// WebhookPayload is the envelope Meta posts to the messaging webhook.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry groups messaging events for one connected account.
type WebhookEntry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

// MessagingEvent is one inbound message event.
type MessagingEvent struct {
	Sender    Participant  `json:"sender"`
	Recipient Participant  `json:"recipient"`
	Timestamp int64        `json:"timestamp"`
	Message   *TextMessage `json:"message"`
}

// Participant identifies one side of the thread.
type Participant struct {
	ID string `json:"id"`
}

// TextMessage carries the DM body and the provider message id.
type TextMessage struct {
	MID    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo"`
}
