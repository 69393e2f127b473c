package conversation

import "sync"

// Registry holds the conversations of one user session and tracks which one is selected.
// It is owned by the session layer; there is no process-wide instance.
type Registry struct {
	opts Options

	mu            sync.Mutex
	conversations map[string]*Conversation
	order         []string
	selected      string
}

// NewRegistry creates an empty registry whose conversations share opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:          opts.withDefaults(),
		conversations: make(map[string]*Conversation),
	}
}

// Select makes id the selected conversation, creating it disconnected if unknown.
// An empty id clears the selection and returns nil.
func (r *Registry) Select(id string) *Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		r.selected = ""
		return nil
	}

	conv, ok := r.conversations[id]
	if !ok {
		conv = New(id, r.opts)
		r.conversations[id] = conv
		r.order = append(r.order, id)
		r.opts.Logger.Debug().Str("conversation_id", id).Msg("conversation created")
	}
	r.selected = id
	return conv
}

// Selected returns the selected conversation, if any.
func (r *Registry) Selected() (*Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.selected == "" {
		return nil, false
	}
	conv, ok := r.conversations[r.selected]
	return conv, ok
}

// Get looks up a known conversation without creating it.
func (r *Registry) Get(id string) (*Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	return conv, ok
}

// List returns known conversations in creation order.
func (r *Registry) List() []*Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Conversation, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.conversations[id])
	}
	return out
}

// Close disconnects every conversation. History stays available.
func (r *Registry) Close() {
	for _, conv := range r.List() {
		conv.Disconnect()
	}
}
