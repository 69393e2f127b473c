package relay

// Client is a peer connected to the relay.
type Client struct {
	ID       string
	Name     string
	Commands chan *Command
	Events   chan *Event

	conversations map[string]struct{}
	done          chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id, name string) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:            id,
		Name:          name,
		Commands:      make(chan *Command, 16),
		Events:        make(chan *Event, 16),
		conversations: make(map[string]struct{}),
		done:          make(chan struct{}),
	}
}
