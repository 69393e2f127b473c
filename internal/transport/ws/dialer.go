// Package ws connects conversations to the relay over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketwire/internal/conversation"
	"github.com/vovakirdan/marketwire/internal/proto"
)

// Dialer implements conversation.Transport against a relay endpoint.
type Dialer struct {
	URL   string
	Token string
	log   *zerolog.Logger
}

// NewDialer builds a dialer that authenticates with token.
func NewDialer(url, token string, logger *zerolog.Logger) *Dialer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dialer{URL: url, Token: token, log: logger}
}

// Dial connects, joins conversationID and starts delivering inbound messages.
func (d *Dialer) Dial(ctx context.Context, conversationID string, deliver func(conversation.Message)) (conversation.Session, error) {
	header := http.Header{}
	if d.Token != "" {
		header.Set("Authorization", "Bearer "+d.Token)
	}

	conn, _, err := websocket.Dial(ctx, d.URL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	payload, err := json.Marshal(proto.JoinData{Conversation: conversationID})
	if err != nil {
		conn.Close(websocket.StatusInternalError, "marshal join")
		return nil, fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: payload}); err != nil {
		conn.Close(websocket.StatusInternalError, "join failed")
		return nil, fmt.Errorf("join conversation: %w", err)
	}
	if err := awaitJoined(ctx, conn, conversationID); err != nil {
		conn.Close(websocket.StatusNormalClosure, "join rejected")
		return nil, err
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &session{
		conversationID: conversationID,
		conn:           conn,
		cancel:         cancel,
		done:           make(chan struct{}),
		log:            d.log,
	}
	go s.readLoop(sctx, deliver)
	return s, nil
}

type session struct {
	conversationID string
	conn           *websocket.Conn
	cancel         context.CancelFunc
	log            *zerolog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

func (s *session) Send(ctx context.Context, msg conversation.Message) error {
	payload, err := json.Marshal(proto.MsgData{
		ID:           msg.ID,
		Conversation: s.conversationID,
		Body:         msg.Body,
		TS:           msg.SentAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return wsjson.Write(ctx, s.conn, proto.Inbound{Type: proto.InboundTypeMsg, Data: payload})
}

func (s *session) Done() <-chan struct{} {
	return s.done
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if err := s.conn.Close(websocket.StatusNormalClosure, "bye"); err != nil {
			s.log.Debug().Err(err).Str("conversation_id", s.conversationID).Msg("close relay connection")
		}
		close(s.done)
	})
	return nil
}

func (s *session) readLoop(ctx context.Context, deliver func(conversation.Message)) {
	defer func() { _ = s.Close() }()

	for {
		var frame proto.OutboundFrame
		if err := wsjson.Read(ctx, s.conn, &frame); err != nil {
			if ctx.Err() == nil {
				s.log.Debug().Err(err).Str("conversation_id", s.conversationID).Msg("relay read ended")
			}
			return
		}

		switch frame.Type {
		case proto.OutboundTypeError:
			if frame.Error != nil {
				s.log.Warn().Str("code", frame.Error.Code).Str("conversation_id", s.conversationID).Msg(frame.Error.Msg)
			}
		case proto.OutboundTypeEvent:
			if frame.Event != proto.EventMessage {
				continue
			}
			var data proto.EventMessageData
			if err := json.Unmarshal(frame.Data, &data); err != nil {
				s.log.Warn().Err(err).Msg("decode relayed message")
				continue
			}
			if data.Conversation != s.conversationID {
				continue
			}
			deliver(conversation.Message{
				ID:     data.ID,
				Sender: data.User,
				Body:   data.Body,
				SentAt: time.UnixMilli(data.TS),
			})
		}
	}
}

var _ conversation.Transport = (*Dialer)(nil)

// awaitJoined blocks until the relay confirms the join. Until then nothing
// else can arrive on the connection, so the first joined event is ours.
func awaitJoined(ctx context.Context, conn *websocket.Conn, conversationID string) error {
	for {
		var frame proto.OutboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("await join: %w", err)
		}
		switch {
		case frame.Type == proto.OutboundTypeError && frame.Error != nil:
			return fmt.Errorf("join conversation: %s: %s", frame.Error.Code, frame.Error.Msg)
		case frame.Type == proto.OutboundTypeEvent && frame.Event == proto.EventJoined:
			var data proto.EventPresence
			if err := json.Unmarshal(frame.Data, &data); err == nil && data.Conversation == conversationID {
				return nil
			}
		}
	}
}
