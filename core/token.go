package core

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenStorageKey is the fixed key the session token persists under.
const tokenStorageKey = "token"

// tokenState is the persisted document shape.
type tokenState struct {
	Token string `json:"token"`
}

// TokenStore holds the bearer token for the current session and
// persists it so a restart does not log the user out. The token is a
// JWT issued by the backend; the store decodes its claims without
// verifying the signature - verification is the server's job, the
// client only needs the role and expiry for local gating.
type TokenStore struct {
	mu      sync.RWMutex
	token   string
	storage Storage
	logger  Logger
}

// NewTokenStore creates a token store backed by the given storage and
// loads any previously persisted token.
func NewTokenStore(ctx context.Context, storage Storage, logger Logger) (*TokenStore, error) {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	s := &TokenStore{
		storage: storage,
		logger:  logger,
	}

	raw, err := storage.Load(ctx, tokenStorageKey)
	if err != nil {
		return nil, NewError("token.Load", "token", err)
	}
	if raw != "" {
		var state tokenState
		// Defensive parsing: a corrupt document means no session,
		// not a startup failure.
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			logger.Warn("Discarding corrupt persisted token", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			s.token = state.Token
		}
	}

	return s, nil
}

// Token returns the current bearer token, or "" when logged out
func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken stores and persists a new bearer token
func (s *TokenStore) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	data, err := json.Marshal(tokenState{Token: token})
	if err != nil {
		return NewError("token.SetToken", "token", err)
	}
	if err := s.storage.Save(ctx, tokenStorageKey, string(data)); err != nil {
		return NewError("token.SetToken", "token", err)
	}
	return nil
}

// ClearToken removes the token from memory and storage
func (s *TokenStore) ClearToken(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err := s.storage.Delete(ctx, tokenStorageKey); err != nil {
		return NewError("token.ClearToken", "token", err)
	}
	return nil
}

// Claims returns the decoded JWT claims of the current token. The
// signature is NOT verified.
func (s *TokenStore) Claims() (jwt.MapClaims, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrTokenMissing
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, NewError("token.Claims", "token", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, NewError("token.Claims", "token", ErrNotAuthenticated)
	}
	return claims, nil
}

// Role returns the role claim of the current token, upper-cased, or
// "" when there is no token or no role claim.
func (s *TokenStore) Role() string {
	claims, err := s.Claims()
	if err != nil {
		return ""
	}
	if role, ok := claims["role"].(string); ok {
		return strings.ToUpper(role)
	}
	return ""
}

// Expired reports whether the current token carries an exp claim in
// the past. A token without an exp claim is treated as live.
func (s *TokenStore) Expired() bool {
	claims, err := s.Claims()
	if err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
