package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrSessionEnded is returned for tokens of a session that was ended.
	ErrSessionEnded = errors.New("session ended")
)

// Session is an issued dashboard session.
type Session struct {
	UserID   string
	Username string
	Token    string
}

// Service issues and validates session tokens. Identity itself is managed elsewhere;
// the service only binds a display name to a fresh user id.
type Service struct {
	jwtConfig *JWTConfig

	mu    sync.Mutex
	ended map[string]time.Time // user id -> token expiry
}

// NewService creates a new authentication service.
func NewService(jwtConfig *JWTConfig) *Service {
	return &Service{jwtConfig: jwtConfig, ended: make(map[string]time.Time)}
}

// StartSession issues a token for username.
func (s *Service) StartSession(username string) (*Session, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return nil, ErrInvalidUsername
	}

	userID := uuid.NewString()
	token, err := GenerateToken(s.jwtConfig, userID, username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &Session{UserID: userID, Username: username, Token: token}, nil
}

// ValidateToken validates a JWT token and returns the claims.
// Tokens of ended sessions are rejected with ErrSessionEnded.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := ValidateToken(s.jwtConfig, tokenString)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, ended := s.ended[claims.UserID]
	s.mu.Unlock()
	if ended {
		return nil, ErrSessionEnded
	}
	return claims, nil
}

// EndSession revokes the session behind claims until its token expires.
func (s *Service) EndSession(claims *Claims) {
	expiry := time.Now().Add(s.jwtConfig.TTL)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for userID, until := range s.ended {
		if now.After(until) {
			delete(s.ended, userID)
		}
	}
	s.ended[claims.UserID] = expiry
}
