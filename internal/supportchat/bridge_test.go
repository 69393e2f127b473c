package supportchat

import (
	"reflect"
	"testing"
)

type recordingSink struct {
	pushed []Command
}

func (s *recordingSink) Push(cmd Command) { s.pushed = append(s.pushed, cmd) }

func TestOpenChatWithoutWidgetIsNoop(t *testing.T) {
	b := NewBridge(nil)

	if b.Available() {
		t.Fatalf("new bridge should have no widget")
	}
	// Must not panic.
	b.OpenChat()
	b.OpenChat()
}

func TestOpenChatPushesCommand(t *testing.T) {
	b := NewBridge(nil)
	sink := &recordingSink{}
	b.Attach(sink)

	b.OpenChat()

	if len(sink.pushed) != 1 {
		t.Fatalf("expected 1 command, got %d", len(sink.pushed))
	}
	if got := sink.pushed[0].Args(); !reflect.DeepEqual(got, []string{"do", "chat:open"}) {
		t.Fatalf("unexpected command: %v", got)
	}
}

func TestWidgetLoadingLater(t *testing.T) {
	b := NewBridge(nil)
	sink := &recordingSink{}

	b.OpenChat()
	b.Attach(sink)
	b.OpenChat()

	if len(sink.pushed) != 1 {
		t.Fatalf("call before load must not be replayed, got %d commands", len(sink.pushed))
	}

	b.Detach()
	b.OpenChat()
	if len(sink.pushed) != 1 {
		t.Fatalf("detached sink still received commands")
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(2)
	b := NewBridge(nil)
	b.Attach(q)

	for range 5 {
		b.OpenChat()
	}

	got := q.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 queued commands, got %d", len(got))
	}
	if len(q.Drain()) != 0 {
		t.Fatalf("drain should empty the queue")
	}
}
