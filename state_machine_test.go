package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/imagix/accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStateMachineActivatesPendingAccount(t *testing.T) {
	repo := &MockUsers{}
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &accounts.User{
		ID:    uuid.New(),
		Email: "pending@example.com",
	}

	repo.On("SetActivatedByEmail", mock.Anything, "pending@example.com").
		Return(nil).Once()

	sm := accounts.NewStateMachine(repo, accounts.WithStateMachineClock(func() time.Time { return now }))

	result, err := sm.Transition(context.Background(), user, accounts.StatusActivated)
	require.NoError(t, err)
	assert.True(t, result.IsActivated)
	assert.Equal(t, accounts.StatusActivated, result.Status())
	require.NotNil(t, result.UpdatedAt)
	assert.Equal(t, now, result.UpdatedAt.UTC())
	repo.AssertExpectations(t)
}

func TestStateMachineActivateIsIdempotent(t *testing.T) {
	repo := &MockUsers{}
	user := &accounts.User{
		ID:          uuid.New(),
		Email:       "active@example.com",
		IsActivated: true,
	}

	sm := accounts.NewStateMachine(repo)

	// a second activation is a no-op, not an error and not a write
	result, err := sm.Transition(context.Background(), user, accounts.StatusActivated)
	require.NoError(t, err)
	assert.True(t, result.IsActivated)
	repo.AssertNotCalled(t, "SetActivatedByEmail", mock.Anything, mock.Anything)
}

func TestStateMachineRejectsActivatingMissingAccount(t *testing.T) {
	repo := &MockUsers{}
	sm := accounts.NewStateMachine(repo)

	// nil record models an email with no row behind it
	_, err := sm.Transition(context.Background(), nil, accounts.StatusActivated)
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrInvalidToken)
	repo.AssertNotCalled(t, "SetActivatedByEmail", mock.Anything, mock.Anything)
}

func TestStateMachineRegisterTransition(t *testing.T) {
	repo := &MockUsers{}
	sm := accounts.NewStateMachine(repo)

	result, err := sm.Transition(context.Background(), nil, accounts.StatusPending)
	require.NoError(t, err)
	assert.Nil(t, result)

	// the insert materializes the pending record, no repo write here
	repo.AssertNotCalled(t, "SetActivatedByEmail", mock.Anything, mock.Anything)
}

func TestStateMachineGuardRegister(t *testing.T) {
	sm := accounts.NewStateMachine(&MockUsers{})

	tests := []struct {
		name     string
		existing *accounts.User
		wantErr  error
	}{
		{
			name:     "No existing record",
			existing: nil,
			wantErr:  nil,
		},
		{
			name:     "Pending record forces activation first",
			existing: &accounts.User{Email: "pending@example.com"},
			wantErr:  accounts.ErrAccountNotActivated,
		},
		{
			name:     "Activated record is a conflict",
			existing: &accounts.User{Email: "active@example.com", IsActivated: true},
			wantErr:  accounts.ErrEmailAlreadyInUse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sm.GuardRegister(tt.existing)

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStateMachineCurrentStatus(t *testing.T) {
	sm := accounts.NewStateMachine(&MockUsers{})

	assert.Equal(t, accounts.StatusUnregistered, sm.CurrentStatus(nil))
	assert.Equal(t, accounts.StatusPending, sm.CurrentStatus(&accounts.User{}))
	assert.Equal(t, accounts.StatusActivated, sm.CurrentStatus(&accounts.User{IsActivated: true}))
}

func TestStateMachineRepoFailureSurfaces(t *testing.T) {
	repo := &MockUsers{}
	repo.On("SetActivatedByEmail", mock.Anything, "pending@example.com").
		Return(assert.AnError).Once()

	sm := accounts.NewStateMachine(repo)

	user := &accounts.User{Email: "pending@example.com"}
	_, err := sm.Transition(context.Background(), user, accounts.StatusActivated)
	require.Error(t, err)
	assert.False(t, user.IsActivated)
	repo.AssertExpectations(t)
}
