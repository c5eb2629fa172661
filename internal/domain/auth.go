package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// Credential is a BMC username and secret. The secret never appears in
// formatted or logged output.
type Credential struct {
	Username string
	Secret   string
}

// String implements fmt.Stringer with the secret redacted.
func (c Credential) String() string {
	return fmt.Sprintf("%s:[REDACTED]", c.Username)
}

// LogValue implements slog.LogValuer with the secret redacted.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("secret", "[REDACTED]"),
	)
}

// Session is an authenticated Redfish session.
type Session struct {
	Token    string
	BaseURL  string
	Location string // session resource URI, used for logout
}

// SessionManager acquires and holds the session used by every other request.
type SessionManager interface {
	TokenSource

	Acquire(ctx context.Context, credential Credential, baseURL string) (Session, error)
	CurrentToken() (string, error)
	Invalidate()
	Close(ctx context.Context) error
}

// TokenSource supplies tokens to resource clients and is told about the
// status of each authenticated response.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Observe(statusCode int)
}

// PasswordReader handles secure password input from users.
type PasswordReader interface {
	ReadPassword(ctx context.Context, prompt string) (string, error)
	IsInteractive() bool
}
