package http

import (
	"encoding/json"
	"time"

	"github.com/vovakirdan/marketwire/internal/proto"
	"github.com/vovakirdan/marketwire/internal/relay"
)

const (
	errCodeInvalidMessage     = "invalid_message"
	errCodeRateLimited        = "rate_limited"
	errCodeUnsupportedVersion = "unsupported_version"
)

func inboundToCommand(inbound proto.Inbound) (*relay.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin, proto.InboundTypeLeave:
		var data proto.JoinData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Conversation == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "conversation is required"}, nil
		}
		kind := relay.CommandJoin
		if inbound.Type == proto.InboundTypeLeave {
			kind = relay.CommandLeave
		}
		return &relay.Command{Kind: kind, Conversation: data.Conversation}, nil, nil
	case proto.InboundTypeMsg:
		var msg proto.MsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.Conversation == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "conversation is required"}, nil
		}
		if msg.Body == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "body is required"}, nil
		}
		var sentAt time.Time
		if msg.TS > 0 {
			sentAt = time.UnixMilli(msg.TS)
		}
		return &relay.Command{
			Kind:         relay.CommandSend,
			Conversation: msg.Conversation,
			Message: relay.Message{
				ID:     msg.ID,
				Body:   msg.Body,
				SentAt: sentAt,
			},
		}, nil, nil
	default:
		return nil, &proto.Error{Code: errCodeInvalidMessage, Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *relay.Event) proto.Outbound {
	switch event.Kind {
	case relay.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessage,
			Data: proto.EventMessageData{
				ID:           event.Message.ID,
				Conversation: event.Message.Conversation,
				User:         event.Message.From,
				Body:         event.Message.Body,
				TS:           event.Message.SentAt.UnixMilli(),
			},
		}
	case relay.EventJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventJoined,
			Data:  proto.EventPresence{Conversation: event.Conversation, User: event.User},
		}
	case relay.EventLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventLeft,
			Data:  proto.EventPresence{Conversation: event.Conversation, User: event.User},
		}
	case relay.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
