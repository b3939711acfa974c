package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates the two credentials the service mints.
type TokenKind = string

const (
	// TokenKindSession is a long-lived bearer credential carrying the
	// subject id. It has no expiry in this design.
	TokenKindSession TokenKind = "session"
	// TokenKindActivation is a short-lived credential binding an email,
	// used to move an account out of the pending state.
	TokenKindActivation TokenKind = "activation"
)

// Claims is the signed payload carried by every token the service issues.
type Claims struct {
	jwt.RegisteredClaims
	Kind  TokenKind `json:"kind,omitempty"`
	Email string    `json:"email,omitempty"`
}

// SubjectID returns the subject claim
func (c *Claims) SubjectID() string {
	return c.RegisteredClaims.Subject
}

// IsSession reports whether the token grants an authenticated session.
func (c *Claims) IsSession() bool {
	return c.Kind == TokenKindSession
}

// IsActivation reports whether the token is an activation credential.
func (c *Claims) IsActivation() bool {
	return c.Kind == TokenKindActivation
}

// Expires returns the expiration time, zero when the token never expires.
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
