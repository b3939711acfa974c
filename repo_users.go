package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SetActivatedSQL flips the activation flag for a pending record. Repeating
// the update on an already activated record is harmless.
var SetActivatedSQL = `UPDATE "users" AS "usr"
SET
	"is_activated" = TRUE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."email" = ?
RETURNING *;`

// Users is the store the coordinator and state machine operate against.
// Uniqueness of email is enforced by the storage layer, not here: a
// registration race surfaces as a unique violation on the second insert.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields UserFields) error
	UpdateFieldsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, fields UserFields) error
	SetActivatedByEmail(ctx context.Context, email string) error
	SetActivatedByEmailTx(ctx context.Context, tx bun.IDB, email string) error
}

// UserFields carries the owner-mutable columns for a partial update. Only
// non-empty fields are applied; the password hash is always replaced
// wholesale, never patched.
type UserFields struct {
	Username     string
	PasswordHash string
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) UpdateFields(ctx context.Context, id uuid.UUID, fields UserFields) error {
	return a.UpdateFieldsTx(ctx, a.db, id, fields)
}

func (a *users) UpdateFieldsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, fields UserFields) error {
	record := &User{}
	record.ID = id
	record.Username = fields.Username
	record.PasswordHash = fields.PasswordHash
	now := time.Now()
	record.UpdatedAt = &now

	_, err := a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))

	return err
}

func (a *users) SetActivatedByEmail(ctx context.Context, email string) error {
	return a.SetActivatedByEmailTx(ctx, a.db, email)
}

func (a *users) SetActivatedByEmailTx(ctx context.Context, tx bun.IDB, email string) error {
	res, err := a.Repository.RawTx(ctx, tx, SetActivatedSQL, email)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"email": email,
			})
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// IsUniqueViolation reports whether err is the storage layer rejecting a
// duplicate value on a unique column. Matched on driver message text since
// the shim can sit on top of sqlite or postgres.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "constraint violation")
}
