package relay

import "time"

// EventKind is a notification the relay emits to clients.
type EventKind int

const (
	// EventMessage carries a message from another member.
	EventMessage EventKind = iota
	// EventJoined notifies members that a peer joined.
	EventJoined
	// EventLeft notifies members that a peer left.
	EventLeft
	// EventError reports a rejected command to its sender.
	EventError
)

// Message is a relayed chat message.
type Message struct {
	ID           string
	Conversation string
	From         string
	Body         string
	SentAt       time.Time
}

// Event is sent to clients to describe what happened.
type Event struct {
	Kind         EventKind
	Conversation string
	User         string
	Message      Message
	Error        *RelayError
}
