package supportchat

// DefaultQueueSize is used when NewQueue gets a non-positive size.
const DefaultQueueSize = 32

// Queue is an in-process CommandSink that a transport drains toward the widget.
// Push never blocks; commands beyond capacity are dropped.
type Queue struct {
	commands chan Command
}

// NewQueue creates a queue holding at most size pending commands.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{commands: make(chan Command, size)}
}

// Push enqueues cmd unless the queue is full.
func (q *Queue) Push(cmd Command) {
	select {
	case q.commands <- cmd:
	default:
	}
}

// Drain returns every pending command without waiting.
func (q *Queue) Drain() []Command {
	out := make([]Command, 0, len(q.commands))
	for {
		select {
		case cmd := <-q.commands:
			out = append(out, cmd)
		default:
			return out
		}
	}
}

// Commands exposes the queue for consumers that want to block on it.
func (q *Queue) Commands() <-chan Command {
	return q.commands
}
