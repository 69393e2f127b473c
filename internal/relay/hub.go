package relay

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type clientCommand struct {
	client *Client
	cmd    *Command
}

// Hub routes messages between clients that joined the same conversation.
// All room state is owned by the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	stopped    chan struct{}

	clients map[*Client]struct{}
	rooms   map[string]*Room
	log     *zerolog.Logger
	now     func() time.Time
}

// NewHub creates a hub. A nil logger disables logging.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand, 64),
		stopped:    make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]*Room),
		log:        logger,
		now:        time.Now,
	}
}

// RegisterClient hands a client to the hub. It returns false once the hub has stopped.
func (h *Hub) RegisterClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		return false
	}
}

// UnregisterClient removes a client from every conversation and closes its Events channel.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Run processes hub traffic until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			go h.pump(ctx, c)
			h.log.Debug().Str("client_id", c.ID).Str("user", c.Name).Msg("client registered")
		case c := <-h.unregister:
			h.drop(c)
		case cc := <-h.commands:
			if _, ok := h.clients[cc.client]; !ok {
				continue
			}
			h.handle(cc.client, cc.cmd)
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

// pump forwards a client's commands into the hub loop, preserving their order.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handle(c *Client, cmd *Command) {
	if cmd.Conversation == "" {
		deliver(c, &Event{Kind: EventError, Error: relayError(ErrCodeBadRequest, "conversation is required")})
		return
	}

	switch cmd.Kind {
	case CommandJoin:
		h.join(c, cmd.Conversation)
	case CommandLeave:
		h.leave(c, cmd.Conversation)
	case CommandSend:
		h.send(c, cmd.Conversation, cmd.Message)
	default:
		deliver(c, &Event{Kind: EventError, Conversation: cmd.Conversation, Error: relayError(ErrCodeBadRequest, "unknown command")})
	}
}

func (h *Hub) join(c *Client, conversation string) {
	room, ok := h.rooms[conversation]
	if !ok {
		room = NewRoom(conversation)
		h.rooms[conversation] = room
	}
	if !room.AddClient(c) {
		deliver(c, &Event{Kind: EventError, Conversation: conversation, Error: relayError(ErrCodeAlreadyJoined, "already joined")})
		return
	}
	c.conversations[conversation] = struct{}{}
	room.Broadcast(&Event{Kind: EventJoined, Conversation: conversation, User: c.Name}, nil)
}

func (h *Hub) leave(c *Client, conversation string) {
	room, ok := h.rooms[conversation]
	if !ok || !room.RemoveClient(c) {
		deliver(c, &Event{Kind: EventError, Conversation: conversation, Error: relayError(ErrCodeNotJoined, "not joined")})
		return
	}
	delete(c.conversations, conversation)
	room.Broadcast(&Event{Kind: EventLeft, Conversation: conversation, User: c.Name}, nil)
	if room.Empty() {
		delete(h.rooms, conversation)
	}
}

func (h *Hub) send(c *Client, conversation string, msg Message) {
	if _, ok := c.conversations[conversation]; !ok {
		deliver(c, &Event{Kind: EventError, Conversation: conversation, Error: relayError(ErrCodeNotJoined, "not joined")})
		return
	}
	room := h.rooms[conversation]

	msg.Conversation = conversation
	msg.From = c.Name
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = h.now()
	}
	room.Broadcast(&Event{Kind: EventMessage, Conversation: conversation, User: c.Name, Message: msg}, c)
}

func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	for conversation := range c.conversations {
		if room, ok := h.rooms[conversation]; ok {
			room.RemoveClient(c)
			room.Broadcast(&Event{Kind: EventLeft, Conversation: conversation, User: c.Name}, nil)
			if room.Empty() {
				delete(h.rooms, conversation)
			}
		}
	}
	delete(h.clients, c)
	close(c.done)
	close(c.Events)
	h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")
}
