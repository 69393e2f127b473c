package relay

// Room groups the clients taking part in one conversation.
type Room struct {
	Conversation string
	clients      map[*Client]struct{}
}

// NewRoom constructs a room with no clients.
func NewRoom(conversation string) *Room {
	return &Room{
		Conversation: conversation,
		clients:      make(map[*Client]struct{}),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Broadcast sends an event to every client in the room except skip.
func (r *Room) Broadcast(event *Event, skip *Client) {
	for client := range r.clients {
		if client == skip {
			continue
		}
		deliver(client, event)
	}
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.clients) == 0
}

func deliver(c *Client, event *Event) {
	select {
	case c.Events <- event:
	default:
		// Drop if slow consumer.
	}
}
