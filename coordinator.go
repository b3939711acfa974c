package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RegisterInput is the validated payload for a registration request.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone_number"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterInput) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Username, validation.Required, validation.Length(6, 255)),
			validation.Field(&r.Email, validation.Required, validation.Length(6, 255), is.Email),
			validation.Field(&r.Password, validation.Required, validation.Length(8, 1024)),
		)
	}, "Invalid registration payload")
}

// UpdateInput carries the owner-mutable profile fields. Empty fields are
// left untouched; a supplied password is re-hashed before storage.
type UpdateInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r UpdateInput) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Username, validation.Length(6, 255)),
			validation.Field(&r.Password, validation.Length(8, 1024)),
		)
	}, "Invalid profile update payload")
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	UserID string `json:"user"`
	Token  string `json:"token"`
}

// RegisterResult is returned on a successful registration.
type RegisterResult struct {
	UserID string `json:"user"`
}

// Coordinator orchestrates the credential hasher, token service and
// activation state machine against the user store.
type Coordinator struct {
	repo          RepositoryManager
	tokens        TokenService
	notifier      Notifier
	sm            StateMachine
	logger        Logger
	activationTTL time.Duration
	bcryptCost    int
}

// CoordinatorOption customizes coordinator construction.
type CoordinatorOption func(*Coordinator)

// WithLogger overrides the default logger.
func WithLogger(logger Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithActivationTTL overrides the validity window of activation tokens.
func WithActivationTTL(ttl time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.activationTTL = ttl
		}
	}
}

// WithBcryptCost overrides the hashing work factor.
func WithBcryptCost(cost int) CoordinatorOption {
	return func(c *Coordinator) {
		if cost > 0 {
			c.bcryptCost = cost
		}
	}
}

// WithConfig applies the tunables carried by the shared Config.
func WithConfig(cfg Config) CoordinatorOption {
	return func(c *Coordinator) {
		if cfg == nil {
			return
		}
		if ttl := cfg.GetActivationTTL(); ttl > 0 {
			c.activationTTL = ttl
		}
		if cost := cfg.GetBcryptCost(); cost > 0 {
			c.bcryptCost = cost
		}
	}
}

// WithStateMachine replaces the default activation state machine.
func WithStateMachine(sm StateMachine) CoordinatorOption {
	return func(c *Coordinator) {
		if sm != nil {
			c.sm = sm
		}
	}
}

// NewCoordinator returns a new Coordinator
func NewCoordinator(repo RepositoryManager, tokens TokenService, notifier Notifier, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		repo:          repo,
		tokens:        tokens,
		notifier:      notifier,
		logger:        defLogger{},
		activationTTL: DefaultActivationTTL,
		bcryptCost:    DefaultBcryptCost,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.sm == nil {
		c.sm = NewStateMachine(repo.Users())
	}

	return c
}

// Login verifies the credentials for an email and mints a session token.
// An unknown email and a wrong password are indistinguishable in the
// response so the endpoint cannot be used to enumerate accounts.
func (c *Coordinator) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := c.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrWrongCredentials
		}
		c.logger.Error("login user lookup failed", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrWrongCredentials
	}

	if user.Status() != StatusActivated {
		return nil, ErrAccountNotActivated
	}

	token, err := c.tokens.IssueSessionToken(user.ID.String())
	if err != nil {
		c.logger.Error("login session token issuance failed", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	return &LoginResult{
		UserID: user.ID.String(),
		Token:  token,
	}, nil
}

// Register validates the payload shape before touching the store, applies
// the register transition and persists the record with a hashed password.
// The activation link is dispatched best effort after the record is
// durably created; a failed dispatch never fails the registration.
func (c *Coordinator) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if verr := input.Validate(); verr != nil {
		return nil, verr.WithTextCode(TextCodeInvalidCredentials).WithCode(goerrors.CodeBadRequest)
	}

	existing, err := c.repo.Users().GetByEmail(ctx, input.Email)
	if err != nil && !goerrors.IsNotFound(err) {
		c.logger.Error("register user lookup failed", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing registration")
	}

	if existing != nil {
		if err := c.sm.GuardRegister(existing); err != nil {
			return nil, err
		}
	}

	user := &User{}
	err = c.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPasswordCost(input.Password, c.bcryptCost)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Username = input.Username
		user.Email = input.Email
		user.Phone = input.Phone
		user.PasswordHash = hash

		if user, err = c.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		// a registration race lost against the unique email constraint
		if IsUniqueViolation(err) {
			return nil, ErrEmailAlreadyInUse
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		c.logger.Error("register transaction failed", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	c.dispatchActivation(ctx, user.Email)

	return &RegisterResult{
		UserID: user.ID.String(),
	}, nil
}

// Activate consumes an activation token and moves the bound account out of
// the pending state. Any token or lookup failure collapses into
// ErrInvalidToken.
func (c *Coordinator) Activate(ctx context.Context, token string) error {
	claims, err := c.tokens.Validate(token)
	if err != nil {
		return ErrInvalidToken
	}

	if !claims.IsActivation() || claims.Email == "" {
		return ErrInvalidToken
	}

	user, err := c.repo.Users().GetByEmail(ctx, claims.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrInvalidToken
		}
		c.logger.Error("activate user lookup failed", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during activation")
	}

	if _, err := c.sm.Transition(ctx, user, StatusActivated); err != nil {
		return err
	}

	return nil
}

// GetProfile returns the owner-visible projection of a user record. The
// requester must be the record owner; existence is confirmed before the
// ownership check runs.
func (c *Coordinator) GetProfile(ctx context.Context, requesterID, targetID string) (*Profile, error) {
	if _, err := uuid.Parse(targetID); err != nil {
		return nil, ErrUserNotFound
	}

	user, err := c.repo.Users().GetByID(ctx, targetID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		c.logger.Error("profile lookup failed", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user profile")
	}

	if requesterID != targetID {
		return nil, ErrAccessDenied
	}

	return NewProfile(user), nil
}

// UpdateProfile applies a partial update to the owner's record. Only
// supplied fields change; a supplied password is re-hashed before storage.
func (c *Coordinator) UpdateProfile(ctx context.Context, requesterID, targetID string, input UpdateInput) error {
	if verr := input.Validate(); verr != nil {
		return verr.WithTextCode(TextCodeInvalidCredentials).WithCode(goerrors.CodeBadRequest)
	}

	if _, err := uuid.Parse(targetID); err != nil {
		return ErrUserNotFound
	}

	user, err := c.repo.Users().GetByID(ctx, targetID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		c.logger.Error("profile update lookup failed", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for update")
	}

	if requesterID != targetID {
		return ErrAccessDenied
	}

	fields := UserFields{}
	if input.Username != "" {
		fields.Username = input.Username
	}
	if input.Password != "" {
		hash, err := HashPasswordCost(input.Password, c.bcryptCost)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
		fields.PasswordHash = hash
	}

	if fields == (UserFields{}) {
		return nil
	}

	if err := c.repo.Users().UpdateFields(ctx, user.ID, fields); err != nil {
		c.logger.Error("profile update failed", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user profile")
	}

	return nil
}

func (c *Coordinator) dispatchActivation(ctx context.Context, email string) {
	token, err := c.tokens.IssueActivationToken(email, c.activationTTL)
	if err != nil {
		c.logger.Error("activation token issuance failed", "error", err, "email", email)
		return
	}

	if c.notifier == nil {
		c.logger.Warn("no notifier configured, activation link not sent", "email", email)
		return
	}

	if err := c.notifier.SendActivationLink(ctx, email, token); err != nil {
		// notification failure must not alter the registration response
		c.logger.Error("activation link dispatch failed", "error", err, "email", email)
	}
}

var _ Authenticator = (*Coordinator)(nil)
