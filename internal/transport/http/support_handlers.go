package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketwire/internal/supportchat"
)

// SupportHandlers connects the dashboard's "chat with support" action to the
// widget running in the browser.
type SupportHandlers struct {
	bridge *supportchat.Bridge
	queue  *supportchat.Queue
	log    *zerolog.Logger
}

// NewSupportHandlers creates support handlers.
func NewSupportHandlers(bridge *supportchat.Bridge, queue *supportchat.Queue, logger *zerolog.Logger) *SupportHandlers {
	return &SupportHandlers{
		bridge: bridge,
		queue:  queue,
		log:    logger,
	}
}

// CommandsResponse carries the commands waiting for the widget.
type CommandsResponse struct {
	Commands [][]string `json:"commands"`
}

// Open asks the widget to open its chat window. Without a widget nothing happens.
// POST /api/support/open
func (h *SupportHandlers) Open(c *gin.Context) {
	h.bridge.OpenChat()
	c.Status(http.StatusNoContent)
}

// Attach reports that the widget finished loading.
// POST /api/support/widget
func (h *SupportHandlers) Attach(c *gin.Context) {
	h.bridge.Attach(h.queue)
	h.log.Debug().Msg("support widget attached")
	c.Status(http.StatusNoContent)
}

// Detach reports that the widget went away.
// DELETE /api/support/widget
func (h *SupportHandlers) Detach(c *gin.Context) {
	h.bridge.Detach()
	h.log.Debug().Msg("support widget detached")
	c.Status(http.StatusNoContent)
}

// Commands hands queued commands to the widget in positional form.
// GET /api/support/commands
func (h *SupportHandlers) Commands(c *gin.Context) {
	pending := h.queue.Drain()
	resp := CommandsResponse{Commands: make([][]string, 0, len(pending))}
	for _, cmd := range pending {
		resp.Commands = append(resp.Commands, cmd.Args())
	}
	c.JSON(http.StatusOK, resp)
}
