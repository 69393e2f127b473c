package conversation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type dialReply struct {
	session Session
	err     error
}

type dialAttempt struct {
	ctx     context.Context
	id      string
	deliver func(Message)
	reply   chan dialReply
}

func (a *dialAttempt) succeed(s Session) { a.reply <- dialReply{session: s} }
func (a *dialAttempt) fail(err error)    { a.reply <- dialReply{err: err} }

// fakeTransport hands every dial to the test, which decides when and how it resolves.
type fakeTransport struct {
	attempts     chan *dialAttempt
	ignoreCancel bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{attempts: make(chan *dialAttempt, 8)}
}

func (f *fakeTransport) Dial(ctx context.Context, id string, deliver func(Message)) (Session, error) {
	a := &dialAttempt{ctx: ctx, id: id, deliver: deliver, reply: make(chan dialReply, 1)}
	f.attempts <- a
	if f.ignoreCancel {
		r := <-a.reply
		return r.session, r.err
	}
	select {
	case r := <-a.reply:
		return r.session, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func mustAttempt(t *testing.T, f *fakeTransport) *dialAttempt {
	t.Helper()
	select {
	case a := <-f.attempts:
		return a
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a dial attempt")
		return nil
	}
}

func noAttempt(t *testing.T, f *fakeTransport) {
	t.Helper()
	select {
	case a := <-f.attempts:
		t.Fatalf("unexpected dial attempt for %s", a.id)
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeSession struct {
	mu      sync.Mutex
	sent    []Message
	sendErr error

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{done: make(chan struct{})}
}

func (s *fakeSession) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSession) Done() <-chan struct{} { return s.done }

func (s *fakeSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
	})
	return nil
}

func (s *fakeSession) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

var errRefused = errors.New("connection refused")

func mustState(t *testing.T, c *Conversation, want State) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("conversation %s: expected state %s, got %s", c.ID, want, c.State())
}

func eventually(t *testing.T, msg string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}

func newTestConversation(tr Transport) *Conversation {
	return New("c1", Options{Transport: tr, Sender: "buyer", ConnectTimeout: time.Second})
}

func connected(t *testing.T) (*Conversation, *fakeTransport, *fakeSession) {
	t.Helper()
	tr := newFakeTransport()
	conv := newTestConversation(tr)
	conv.Connect()
	session := newFakeSession()
	mustAttempt(t, tr).succeed(session)
	mustState(t, conv, StateConnected)
	return conv, tr, session
}
