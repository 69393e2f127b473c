package relay

import (
	"context"
	"strconv"
	"testing"
)

func benchmarkConversationRelay(b *testing.B, members int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	sender := NewClient("sender", "sender")
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandJoin, Conversation: "bench"}

	clients := make([]*Client, 0, members)
	for i := range members {
		c := NewClient("c"+strconv.Itoa(i), "member")
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandJoin, Conversation: "bench"}
		clients = append(clients, c)
	}

	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{
			Kind:         CommandSend,
			Conversation: "bench",
			Message:      Message{Body: "payload"},
		}
		for ev := range target.Events {
			if ev.Kind == EventMessage {
				break
			}
		}
	}
}

func BenchmarkConversationRelay_2(b *testing.B)   { benchmarkConversationRelay(b, 2) }
func BenchmarkConversationRelay_50(b *testing.B)  { benchmarkConversationRelay(b, 50) }
func BenchmarkConversationRelay_200(b *testing.B) { benchmarkConversationRelay(b, 200) }
