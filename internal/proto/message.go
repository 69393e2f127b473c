package proto

import "encoding/json"

// Inbound is the envelope for messages coming from a relay client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoin  = "join"
	InboundTypeLeave = "leave"
	InboundTypeMsg   = "msg"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventMessage = "message"
	EventJoined  = "joined"
	EventLeft    = "left"
)

// JoinData requests to join (or leave) a conversation.
type JoinData struct {
	Conversation string `json:"conversation"`
}

// MsgData is a chat message from the client.
type MsgData struct {
	ID           string `json:"id,omitempty"`
	Conversation string `json:"conversation"`
	Body         string `json:"body"`
	TS           int64  `json:"ts,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// OutboundFrame is Outbound as seen by a decoding client.
type OutboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// EventMessageData carries a relayed message. TS is unix milliseconds.
type EventMessageData struct {
	ID           string `json:"id"`
	Conversation string `json:"conversation"`
	User         string `json:"user"`
	Body         string `json:"body"`
	TS           int64  `json:"ts"`
}

// EventPresence notifies that a user joined or left a conversation.
type EventPresence struct {
	Conversation string `json:"conversation"`
	User         string `json:"user"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
