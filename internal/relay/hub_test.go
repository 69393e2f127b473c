package relay

import (
	"context"
	"testing"
	"time"
)

func TestHubJoinRelayAndLeave(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	buyer := NewClient("b", "buyer")
	seller := NewClient("s", "seller")

	hub.RegisterClient(buyer)
	hub.RegisterClient(seller)

	buyer.Commands <- &Command{Kind: CommandJoin, Conversation: "listing-1"}
	seller.Commands <- &Command{Kind: CommandJoin, Conversation: "listing-1"}

	joinEv := mustEvent(t, buyer.Events, EventJoined)
	if joinEv.Conversation != "listing-1" {
		t.Fatalf("unexpected join event: %+v", joinEv)
	}
	mustEvent(t, seller.Events, EventJoined)

	buyer.Commands <- &Command{
		Kind:         CommandSend,
		Conversation: "listing-1",
		Message:      Message{Body: "is it available?"},
	}

	msgEv := mustEvent(t, seller.Events, EventMessage)
	if msgEv.Message.Body != "is it available?" || msgEv.Message.From != "buyer" || msgEv.Message.Conversation != "listing-1" {
		t.Fatalf("unexpected message event: %+v", msgEv)
	}
	if msgEv.Message.ID == "" || msgEv.Message.SentAt.IsZero() {
		t.Fatalf("relay should stamp id and time: %+v", msgEv.Message)
	}

	// The sender does not get its own message back.
	noEvent(t, buyer.Events, EventMessage)

	buyer.Commands <- &Command{Kind: CommandLeave, Conversation: "listing-1"}
	leftEv := mustEvent(t, seller.Events, EventLeft)
	if leftEv.User != "buyer" {
		t.Fatalf("unexpected leave event: %+v", leftEv)
	}
}

func TestHubKeepsSenderMessageID(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	a := NewClient("a", "a")
	b := NewClient("b", "b")
	hub.RegisterClient(a)
	hub.RegisterClient(b)
	a.Commands <- &Command{Kind: CommandJoin, Conversation: "c"}
	b.Commands <- &Command{Kind: CommandJoin, Conversation: "c"}
	mustEvent(t, b.Events, EventJoined)

	a.Commands <- &Command{Kind: CommandSend, Conversation: "c", Message: Message{ID: "m-1", Body: "x"}}
	ev := mustEvent(t, b.Events, EventMessage)
	if ev.Message.ID != "m-1" {
		t.Fatalf("expected id m-1, got %s", ev.Message.ID)
	}
}

func TestHubDoubleJoinProducesError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	buyer := NewClient("b", "buyer")
	hub.RegisterClient(buyer)

	buyer.Commands <- &Command{Kind: CommandJoin, Conversation: "listing-1"}
	buyer.Commands <- &Command{Kind: CommandJoin, Conversation: "listing-1"}

	ev := mustEvent(t, buyer.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeAlreadyJoined {
		t.Fatalf("expected already_joined error, got %+v", ev)
	}
}

func TestHubSendWithoutJoinProducesError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	buyer := NewClient("b", "buyer")
	hub.RegisterClient(buyer)

	buyer.Commands <- &Command{Kind: CommandSend, Conversation: "listing-1", Message: Message{Body: "hi"}}

	ev := mustEvent(t, buyer.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotJoined {
		t.Fatalf("expected not_joined error, got %+v", ev)
	}
}

func TestHubLeaveUnknownConversationError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	buyer := NewClient("b", "buyer")
	hub.RegisterClient(buyer)

	buyer.Commands <- &Command{Kind: CommandLeave, Conversation: "ghost"}

	ev := mustEvent(t, buyer.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotJoined {
		t.Fatalf("expected not_joined error, got %+v", ev)
	}
}

func TestHubUnregisterNotifiesPeersAndClosesEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	buyer := NewClient("b", "buyer")
	seller := NewClient("s", "seller")
	hub.RegisterClient(buyer)
	hub.RegisterClient(seller)
	buyer.Commands <- &Command{Kind: CommandJoin, Conversation: "c"}
	mustEvent(t, buyer.Events, EventJoined)
	seller.Commands <- &Command{Kind: CommandJoin, Conversation: "c"}
	mustEvent(t, seller.Events, EventJoined)

	hub.UnregisterClient(seller)

	ev := mustEvent(t, buyer.Events, EventLeft)
	if ev.User != "seller" {
		t.Fatalf("unexpected leave event: %+v", ev)
	}

	for range seller.Events {
	}
}

func TestHubStopReleasesCallers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if hub.RegisterClient(NewClient("late", "")) {
		t.Fatalf("register should fail on a stopped hub")
	}
	hub.UnregisterClient(NewClient("late", ""))
}
