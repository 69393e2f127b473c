package relay

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSend relays a message to the other members of a conversation.
	CommandSend CommandKind = iota
	// CommandJoin subscribes the client to a conversation.
	CommandJoin
	// CommandLeave unsubscribes the client from a conversation.
	CommandLeave
)

// Command represents an action requested by a client.
type Command struct {
	Kind         CommandKind
	Conversation string
	Message      Message
}
