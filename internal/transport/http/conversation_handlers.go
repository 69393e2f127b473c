package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketwire/internal/conversation"
	"github.com/vovakirdan/marketwire/internal/session"
)

// ConversationHandlers exposes the caller's conversation registry.
type ConversationHandlers struct {
	sessions *session.Manager
	log      *zerolog.Logger
}

// NewConversationHandlers creates conversation handlers.
func NewConversationHandlers(sessions *session.Manager, logger *zerolog.Logger) *ConversationHandlers {
	return &ConversationHandlers{
		sessions: sessions,
		log:      logger,
	}
}

// SelectRequest selects a conversation. An empty ID clears the selection.
type SelectRequest struct {
	ID string `json:"id"`
}

// SendMessageRequest represents the send message request body.
type SendMessageRequest struct {
	Body string `json:"body" binding:"required,max=4000"`
}

// ConversationResponse represents a conversation in API responses.
type ConversationResponse struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	Selected bool   `json:"selected"`
	Messages int    `json:"messages"`
}

// SelectResponse carries the selected conversation, or null when cleared.
type SelectResponse struct {
	Selected *ConversationResponse `json:"selected"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Sender         string `json:"sender"`
	Body           string `json:"body"`
	SentAt         string `json:"sent_at"`
}

func conversationResponse(conv *conversation.Conversation, selected bool) ConversationResponse {
	return ConversationResponse{
		ID:       conv.ID,
		State:    conv.State().String(),
		Selected: selected,
		Messages: len(conv.Messages()),
	}
}

func messageResponse(m conversation.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		Body:           m.Body,
		SentAt:         m.SentAt.UTC().Format(time.RFC3339Nano),
	}
}

func (h *ConversationHandlers) registry(c *gin.Context) (*conversation.Registry, bool) {
	id, ok := identityFrom(c)
	if !ok {
		h.log.Error().Msg("identity not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil, false
	}
	return h.sessions.Registry(id), true
}

// lookup resolves :id without creating it. Conversations come into existence through Select.
func (h *ConversationHandlers) lookup(c *gin.Context) (*conversation.Conversation, bool) {
	reg, ok := h.registry(c)
	if !ok {
		return nil, false
	}
	conv, ok := reg.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		return nil, false
	}
	return conv, true
}

// Select changes the selected conversation.
// POST /api/conversations/select
func (h *ConversationHandlers) Select(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	reg, ok := h.registry(c)
	if !ok {
		return
	}

	conv := reg.Select(req.ID)
	if conv == nil {
		c.JSON(http.StatusOK, SelectResponse{})
		return
	}
	resp := conversationResponse(conv, true)
	c.JSON(http.StatusOK, SelectResponse{Selected: &resp})
}

// List returns the caller's conversations in creation order.
// GET /api/conversations
func (h *ConversationHandlers) List(c *gin.Context) {
	reg, ok := h.registry(c)
	if !ok {
		return
	}

	var selectedID string
	if sel, ok := reg.Selected(); ok {
		selectedID = sel.ID
	}

	convs := reg.List()
	resp := make([]ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		resp = append(resp, conversationResponse(conv, conv.ID == selectedID))
	}
	c.JSON(http.StatusOK, resp)
}

// Connect starts connecting and returns before the outcome is known.
// POST /api/conversations/:id/connect
func (h *ConversationHandlers) Connect(c *gin.Context) {
	conv, ok := h.lookup(c)
	if !ok {
		return
	}
	conv.Connect()
	c.JSON(http.StatusAccepted, conversationResponse(conv, false))
}

// Disconnect drops the real-time connection. History is kept.
// POST /api/conversations/:id/disconnect
func (h *ConversationHandlers) Disconnect(c *gin.Context) {
	conv, ok := h.lookup(c)
	if !ok {
		return
	}
	conv.Disconnect()
	c.JSON(http.StatusOK, conversationResponse(conv, false))
}

// Messages returns the message history.
// GET /api/conversations/:id/messages
func (h *ConversationHandlers) Messages(c *gin.Context) {
	conv, ok := h.lookup(c)
	if !ok {
		return
	}
	msgs := conv.Messages()
	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse(m))
	}
	c.JSON(http.StatusOK, resp)
}

// Send posts a message through the live connection.
// POST /api/conversations/:id/messages
func (h *ConversationHandlers) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	conv, ok := h.lookup(c)
	if !ok {
		return
	}

	msg, err := conv.Send(c.Request.Context(), req.Body)
	if err != nil {
		if errors.Is(err, conversation.ErrNotConnected) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "conversation is not connected"})
			return
		}
		h.log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("failed to send message")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "message was not delivered"})
		return
	}
	c.JSON(http.StatusCreated, messageResponse(msg))
}

// Events streams connection state changes and messages as server-sent events.
// GET /api/conversations/:id/events
func (h *ConversationHandlers) Events(c *gin.Context) {
	conv, ok := h.lookup(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	events, unsubscribe := conv.Subscribe()
	defer unsubscribe()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-events:
			switch ev.Kind {
			case conversation.EventStateChanged:
				c.SSEvent("state", gin.H{"conversation_id": ev.ConversationID, "state": ev.State.String()})
			case conversation.EventMessage:
				c.SSEvent("message", messageResponse(ev.Message))
			}
			return true
		case <-ctx.Done():
			return false
		}
	})
}
