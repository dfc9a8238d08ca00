// Package auth handles login, registration, and the current-user
// session, including the JWT the rest of the client sends as a bearer
// token.
package auth

import (
	"context"

	"github.com/dani-agudelo/conexion-campesina-go/core"
)

// Role is a user's role in the marketplace.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleProducer Role = "PRODUCER"
	RoleClient   Role = "CLIENT"
)

// UserStatus is an account's lifecycle state, managed by admins.
type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
	UserDeleted  UserStatus = "DELETED"
)

// User is an authenticated account.
type User struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	Role   Role       `json:"role"`
	Status UserStatus `json:"status,omitempty"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// LoginResponse carries the issued token and the account it belongs
// to.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Client calls the auth endpoints and keeps the session in sync.
type Client struct {
	api     *core.APIClient
	session *Session
	logger  core.Logger
}

// NewClient creates an auth client. The session may be shared with
// other components that need the current user.
func NewClient(api *core.APIClient, session *Session) *Client {
	if session == nil {
		session = NewSession()
	}
	return &Client{
		api:     api,
		session: session,
		logger:  api.Logger(),
	}
}

// Session returns the session this client maintains.
func (c *Client) Session() *Session {
	return c.session
}

// Login authenticates, persists the issued token, and records the
// current user. Login itself never sends a bearer token; the token
// store is empty or stale at that point.
func (c *Client) Login(ctx context.Context, creds Credentials) (User, error) {
	var resp LoginResponse
	if err := c.api.Post(ctx, "auth/login", creds, &resp); err != nil {
		return User{}, err
	}
	if resp.Token == "" {
		return User{}, core.NewError("auth.Login", "auth", core.ErrTokenMissing)
	}

	if err := c.api.Tokens().SetToken(ctx, resp.Token); err != nil {
		return User{}, err
	}
	c.session.SetCurrentUser(resp.User)

	c.logger.Info("User logged in", map[string]interface{}{
		"user_id": resp.User.ID,
		"role":    string(resp.User.Role),
	})
	return resp.User, nil
}

// Register creates an account. The backend does not log the account
// in; callers follow up with Login.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (User, error) {
	var user User
	if err := c.api.Post(ctx, "auth/register", req, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Verify re-validates the stored token against the backend and
// refreshes the session with the account it resolves to.
func (c *Client) Verify(ctx context.Context) (User, error) {
	if c.api.Tokens().Token() == "" {
		return User{}, core.NewError("auth.Verify", "auth", core.ErrTokenMissing)
	}

	var user User
	if err := c.api.Get(ctx, "auth/verify", &user); err != nil {
		return User{}, err
	}
	c.session.SetCurrentUser(user)
	return user, nil
}

// UserInfo looks up a user by ID.
func (c *Client) UserInfo(ctx context.Context, userID string) (User, error) {
	var user User
	if err := c.api.Get(ctx, "auth/userinfo/"+userID, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Users lists every registered account. The backend restricts the
// endpoint to administrators.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.api.Get(ctx, "auth/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateClientStatus moves an account between ACTIVE, INACTIVE and
// DELETED. Marking DELETED is how admins retire accounts; there is
// no hard-delete endpoint.
func (c *Client) UpdateClientStatus(ctx context.Context, userID string, status UserStatus) (User, error) {
	body := map[string]UserStatus{"newStatus": status}
	var user User
	if err := c.api.Post(ctx, "auth/update-client-status/"+userID, body, &user); err != nil {
		return User{}, err
	}
	c.logger.Info("User status updated", map[string]interface{}{
		"user_id": userID,
		"status":  string(status),
	})
	return user, nil
}

// Logout clears the stored token and the session. It is purely
// client-side; the backend holds no session state.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.api.Tokens().ClearToken(ctx); err != nil {
		return err
	}
	c.session.Clear()
	c.logger.Info("User logged out", nil)
	return nil
}
