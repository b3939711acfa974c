package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountStatus is the activation lifecycle state of an email address.
// The status is derived from the store, never persisted directly: a missing
// record is Unregistered, a record with is_activated=false is Pending and
// one with is_activated=true is Activated.
type AccountStatus = string

const (
	// StatusUnregistered means no record exists for the email.
	StatusUnregistered AccountStatus = "unregistered"
	// StatusPending means a record exists but activation has not completed.
	StatusPending AccountStatus = "pending"
	// StatusActivated means the account may authenticate.
	StatusActivated AccountStatus = "activated"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	IsActivated   bool       `bun:"is_activated,notnull,default:false" json:"is_activated,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Status derives the activation state of the record.
func (u *User) Status() AccountStatus {
	if u == nil {
		return StatusUnregistered
	}
	if u.IsActivated {
		return StatusActivated
	}
	return StatusPending
}

// Profile is the owner-visible projection of a user record. It never
// carries the password hash.
type Profile struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone_number,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// NewProfile projects a user record into its public shape.
func NewProfile(u *User) *Profile {
	if u == nil {
		return nil
	}

	return &Profile{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}
