package accounts

import (
	"context"
	"time"
)

// StateMachine defines the activation lifecycle for accounts.
type StateMachine interface {
	Transition(ctx context.Context, user *User, target AccountStatus) (*User, error)
	GuardRegister(existing *User) error
	CurrentStatus(user *User) AccountStatus
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*accountStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *accountStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineLogger overrides the logger used for transition failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *accountStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// NewStateMachine returns the default implementation backed by the provided
// repository. The activation transition is monotonic: there is no path out
// of Activated, and re-applying Activated is a harmless no-op so an
// unexpired activation token stays idempotent.
func NewStateMachine(users Users, opts ...StateMachineOption) StateMachine {
	sm := &accountStateMachine{
		users: users,
		transitions: map[AccountStatus]map[AccountStatus]struct{}{
			StatusUnregistered: {
				StatusPending: {},
			},
			StatusPending: {
				StatusActivated: {},
			},
			StatusActivated: {
				StatusActivated: {},
			},
		},
		now:    time.Now,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type accountStateMachine struct {
	users       Users
	transitions map[AccountStatus]map[AccountStatus]struct{}
	now         func() time.Time
	logger      Logger
}

func (sm *accountStateMachine) Transition(ctx context.Context, user *User, target AccountStatus) (*User, error) {
	from := user.Status()

	if !sm.canTransition(from, target) {
		sm.logger.Warn("rejected account state transition", "from", from, "to", target)
		return nil, sm.transitionError(from, target)
	}

	if from == target {
		return user, nil
	}

	switch target {
	case StatusActivated:
		if err := sm.users.SetActivatedByEmail(ctx, user.Email); err != nil {
			return nil, err
		}
		user.IsActivated = true
		now := sm.now()
		user.UpdatedAt = &now
	case StatusPending:
		// Unregistered -> Pending is materialized by the record insert
		// itself; the machine only validates the move.
	}

	return user, nil
}

// GuardRegister enforces the register transition rules for an email that
// may already have a record: a pending record forces the original
// activation flow to complete, an activated record is a conflict.
func (sm *accountStateMachine) GuardRegister(existing *User) error {
	switch existing.Status() {
	case StatusUnregistered:
		return nil
	case StatusPending:
		return ErrAccountNotActivated
	default:
		return ErrEmailAlreadyInUse
	}
}

func (sm *accountStateMachine) CurrentStatus(user *User) AccountStatus {
	return user.Status()
}

func (sm *accountStateMachine) canTransition(from, to AccountStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *accountStateMachine) transitionError(from, to AccountStatus) error {
	if to == StatusPending {
		return sm.GuardRegister(&User{IsActivated: from == StatusActivated})
	}

	// activate on a record that does not exist
	return ErrInvalidToken
}
