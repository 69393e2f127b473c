package conversation

import "errors"

var (
	// ErrNotConnected is returned by Send when the conversation has no live transport.
	ErrNotConnected = errors.New("conversation: not connected")
	// ErrNoTransport is reported when a conversation was built without a transport.
	ErrNoTransport = errors.New("conversation: no transport configured")
)

// State is the presence of a conversation's real-time transport.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// EventKind tells observers what changed on a conversation.
type EventKind int

const (
	// EventStateChanged reports a connection state transition.
	EventStateChanged EventKind = iota
	// EventMessage reports a message appended to the conversation.
	EventMessage
)

// Event is delivered to Conversation subscribers.
type Event struct {
	Kind           EventKind
	ConversationID string
	State          State
	Message        Message
}
