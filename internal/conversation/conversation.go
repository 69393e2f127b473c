package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultConnectTimeout bounds how long a conversation may stay connecting.
const DefaultConnectTimeout = 10 * time.Second

const eventBuffer = 16

// Options configures conversations created by a Registry.
type Options struct {
	Transport      Transport
	Sender         string
	ConnectTimeout time.Duration
	Logger         *zerolog.Logger
	Clock          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Conversation is a message thread together with the state of its real-time connection.
//
// Every asynchronous resolution (dial result, timeout, session loss, inbound
// message) carries the generation it was started under and is dropped if the
// generation has moved on, so a Disconnect always wins over a dial that was
// still in flight.
type Conversation struct {
	ID string

	opts Options

	sendMu sync.Mutex

	mu         sync.Mutex
	state      State
	generation uint64
	session    Session
	cancelDial context.CancelFunc
	timer      *time.Timer
	messages   []Message
	subs       map[chan Event]struct{}
}

// New creates a disconnected conversation.
func New(id string, opts Options) *Conversation {
	return &Conversation{
		ID:   id,
		opts: opts.withDefaults(),
		subs: make(map[chan Event]struct{}),
	}
}

// Subscribe registers an observer of state changes and appended messages.
// The first event is always the current state. A subscriber that falls
// behind loses its oldest pending events, never the newest. The returned
// func unsubscribes and closes the channel.
func (c *Conversation) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)

	c.mu.Lock()
	c.subs[ch] = struct{}{}
	ch <- Event{Kind: EventStateChanged, ConversationID: c.ID, State: c.state}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
			close(ch)
		})
	}
}

// State returns the current connection state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether messages can be sent right now.
func (c *Conversation) Connected() bool {
	return c.State() == StateConnected
}

// Messages returns a copy of the message history.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Connect starts connecting a disconnected conversation and returns immediately.
// It does nothing while connecting or connected.
func (c *Conversation) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateDisconnected {
		return
	}

	c.generation++
	gen := c.generation

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel
	c.timer = time.AfterFunc(c.opts.ConnectTimeout, func() { c.expire(gen) })
	c.setStateLocked(StateConnecting)

	go c.dial(ctx, gen)
}

// Disconnect tears down the connection from any state. Messages are kept.
func (c *Conversation) Disconnect() {
	c.mu.Lock()
	c.generation++
	session := c.session
	c.session = nil
	c.stopDialLocked()
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if session != nil {
		if err := session.Close(); err != nil {
			c.opts.Logger.Debug().Err(err).Str("conversation_id", c.ID).Msg("close session")
		}
	}
}

// Send delivers body through the open session and appends it once the
// transport has accepted it.
func (c *Conversation) Send(ctx context.Context, body string) (Message, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return Message{}, ErrNotConnected
	}
	session := c.session
	gen := c.generation
	c.mu.Unlock()

	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: c.ID,
		Sender:         c.opts.Sender,
		Body:           body,
		SentAt:         c.opts.Clock(),
	}
	if err := session.Send(ctx, msg); err != nil {
		c.opts.Logger.Warn().Err(err).Str("conversation_id", c.ID).Uint64("generation", gen).Msg("transport rejected message")
		return Message{}, fmt.Errorf("send message: %w", err)
	}

	c.mu.Lock()
	msg = c.appendLocked(msg)
	c.mu.Unlock()
	return msg, nil
}

func (c *Conversation) dial(ctx context.Context, gen uint64) {
	var (
		session Session
		err     error
	)
	if c.opts.Transport == nil {
		err = ErrNoTransport
	} else {
		session, err = c.opts.Transport.Dial(ctx, c.ID, func(m Message) { c.receive(gen, m) })
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		if session != nil {
			_ = session.Close()
		}
		c.opts.Logger.Debug().Str("conversation_id", c.ID).Uint64("generation", gen).Msg("discarding stale dial result")
		return
	}
	c.stopDialLocked()
	if err != nil {
		c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		c.opts.Logger.Warn().Err(err).Str("conversation_id", c.ID).Msg("connect failed")
		return
	}
	c.session = session
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	c.opts.Logger.Debug().Str("conversation_id", c.ID).Uint64("generation", gen).Msg("connected")
	go c.watch(gen, session)
}

func (c *Conversation) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state != StateConnecting {
		return
	}
	c.generation++
	c.stopDialLocked()
	c.setStateLocked(StateDisconnected)
	c.opts.Logger.Warn().Str("conversation_id", c.ID).Dur("timeout", c.opts.ConnectTimeout).Msg("connect timed out")
}

func (c *Conversation) watch(gen uint64, session Session) {
	<-session.Done()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state != StateConnected {
		return
	}
	c.generation++
	c.session = nil
	c.setStateLocked(StateDisconnected)
	c.opts.Logger.Info().Str("conversation_id", c.ID).Msg("connection lost")
}

func (c *Conversation) receive(gen uint64, m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}
	m.ConversationID = c.ID
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.SentAt.IsZero() {
		m.SentAt = c.opts.Clock()
	}
	c.appendLocked(m)
}

// appendLocked keeps SentAt non-decreasing so ordering by time agrees with insertion order.
func (c *Conversation) appendLocked(m Message) Message {
	if n := len(c.messages); n > 0 {
		if last := c.messages[n-1].SentAt; m.SentAt.Before(last) {
			m.SentAt = last
		}
	}
	c.messages = append(c.messages, m)
	c.emitLocked(Event{Kind: EventMessage, ConversationID: c.ID, State: c.state, Message: m})
	return m
}

func (c *Conversation) stopDialLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
}

func (c *Conversation) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.emitLocked(Event{Kind: EventStateChanged, ConversationID: c.ID, State: s})
}

func (c *Conversation) emitLocked(ev Event) {
	for ch := range c.subs {
		offer(ch, ev)
	}
}

// offer delivers ev, evicting the oldest buffered events while ch is full.
// Only emitLocked sends on subscriber channels, so the loop terminates.
func offer(ch chan Event, ev Event) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
