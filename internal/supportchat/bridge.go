// Package supportchat forwards commands to an externally hosted live-chat widget
// that may or may not have loaded yet.
package supportchat

import (
	"sync"

	"github.com/rs/zerolog"
)

// Command is a single instruction pushed to the widget, e.g. ("do", "chat:open").
type Command struct {
	Verb string `json:"verb"`
	Arg  string `json:"arg"`
}

// CommandOpenChat asks the widget to open its chat window.
var CommandOpenChat = Command{Verb: "do", Arg: "chat:open"}

// Args returns the command in the widget's positional form.
func (c Command) Args() []string {
	return []string{c.Verb, c.Arg}
}

// CommandSink is the widget's fire-and-forget command queue.
type CommandSink interface {
	Push(cmd Command)
}

// Bridge dispatches commands to the widget if it is present at call time.
type Bridge struct {
	log *zerolog.Logger

	mu   sync.RWMutex
	sink CommandSink
}

// NewBridge returns a bridge with no widget attached.
func NewBridge(logger *zerolog.Logger) *Bridge {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Bridge{log: logger}
}

// Attach records that the widget has loaded and exposes sink.
func (b *Bridge) Attach(sink CommandSink) {
	b.mu.Lock()
	b.sink = sink
	b.mu.Unlock()
}

// Detach forgets the widget's sink.
func (b *Bridge) Detach() {
	b.mu.Lock()
	b.sink = nil
	b.mu.Unlock()
}

// Available reports whether a sink is attached.
func (b *Bridge) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sink != nil
}

// OpenChat asks the widget to open. Without a widget this is a no-op.
// Nothing tracks whether the widget acted on the command.
func (b *Bridge) OpenChat() {
	b.mu.RLock()
	sink := b.sink
	b.mu.RUnlock()

	if sink == nil {
		b.log.Debug().Msg("support widget not loaded, open chat skipped")
		return
	}
	sink.Push(CommandOpenChat)
}
