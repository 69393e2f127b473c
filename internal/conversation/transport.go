package conversation

import (
	"context"
	"time"
)

// Message is a single entry in a conversation. Messages are append-only.
type Message struct {
	ID             string
	ConversationID string
	Sender         string
	Body           string
	SentAt         time.Time
}

// Transport opens real-time sessions for conversations.
type Transport interface {
	// Dial opens a session for conversationID. ctx bounds only the dial itself;
	// the returned session must outlive it. deliver is called for every message
	// the peer sends while the session is open.
	Dial(ctx context.Context, conversationID string, deliver func(Message)) (Session, error)
}

// Session is an open real-time channel for one conversation.
type Session interface {
	// Send hands msg to the transport. A nil error means the transport accepted it.
	Send(ctx context.Context, msg Message) error
	// Done is closed when the session ends, for whatever reason.
	Done() <-chan struct{}
	Close() error
}
