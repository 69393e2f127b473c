package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketwire/internal/auth"
	"github.com/vovakirdan/marketwire/internal/session"
)

// SessionHandlers issues and ends dashboard sessions.
type SessionHandlers struct {
	authService *auth.Service
	sessions    *session.Manager
	log         *zerolog.Logger
}

// NewSessionHandlers creates session handlers.
func NewSessionHandlers(authService *auth.Service, sessions *session.Manager, logger *zerolog.Logger) *SessionHandlers {
	return &SessionHandlers{
		authService: authService,
		sessions:    sessions,
		log:         logger,
	}
}

// StartSessionRequest represents the session request body.
type StartSessionRequest struct {
	Username string `json:"username" binding:"required"`
}

// SessionResponse is returned when a session starts.
type SessionResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Start issues a session token.
// POST /api/session
func (h *SessionHandlers) Start(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid session request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	s, err := h.authService.StartSession(req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidUsername) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username must be 3-32 characters"})
			return
		}
		h.log.Error().Err(err).Msg("failed to start session")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("user_id", s.UserID).Str("username", s.Username).Msg("session started")
	c.JSON(http.StatusCreated, SessionResponse{UserID: s.UserID, Username: s.Username, Token: s.Token})
}

// End disconnects every conversation of the caller's session and revokes its token.
// DELETE /api/session
func (h *SessionHandlers) End(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	claims, err := h.authService.ValidateToken(id.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
		return
	}
	h.authService.EndSession(claims)
	h.sessions.End(id.UserID)

	h.log.Info().Str("user_id", id.UserID).Msg("session ended")
	c.Status(http.StatusNoContent)
}
