package accounts

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the options the token service and coordinator need at
// construction time. Built once at process start, passed by reference;
// never read from ambient globals.
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetActivationTTL() time.Duration
	GetBcryptCost() int
	GetBaseURL() string
}

// TokenService signs and verifies the bearer tokens used by the subsystem.
type TokenService interface {
	IssueSessionToken(subjectID string) (string, error)
	IssueActivationToken(email string, ttl time.Duration) (string, error)
	Validate(token string) (*Claims, error)
}

// Notifier delivers the activation link to a freshly registered account.
// Implementations are best effort: the coordinator never fails a
// registration because a notification could not be sent.
type Notifier interface {
	SendActivationLink(ctx context.Context, email, token string) error
}

// Authenticator is the surface the request boundary consumes.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, input RegisterInput) (*RegisterResult, error)
	Activate(ctx context.Context, token string) error
	GetProfile(ctx context.Context, requesterID, targetID string) (*Profile, error)
	UpdateProfile(ctx context.Context, requesterID, targetID string, input UpdateInput) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
