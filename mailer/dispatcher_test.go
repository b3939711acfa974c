package mailer_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/imagix/accounts/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	block chan struct{}
}

func (r *recordingSender) SendActivationLink(ctx context.Context, email, token string) error {
	if r.block != nil {
		<-r.block
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail {
		return errors.New("delivery failed")
	}

	r.sent = append(r.sent, email+":"+token)
	return nil
}

func (r *recordingSender) delivered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func TestDispatcherDeliversQueuedMessages(t *testing.T) {
	sender := &recordingSender{}
	dispatcher := mailer.NewDispatcher(sender)

	require.NoError(t, dispatcher.SendActivationLink(context.Background(), "one@example.com", "token-1"))
	require.NoError(t, dispatcher.SendActivationLink(context.Background(), "two@example.com", "token-2"))

	dispatcher.Close()

	assert.Equal(t, []string{
		"one@example.com:token-1",
		"two@example.com:token-2",
	}, sender.delivered())
}

func TestDispatcherNeverSurfacesDeliveryFailures(t *testing.T) {
	sender := &recordingSender{fail: true}
	dispatcher := mailer.NewDispatcher(sender)

	err := dispatcher.SendActivationLink(context.Background(), "one@example.com", "token-1")
	assert.NoError(t, err)

	dispatcher.Close()
	assert.Empty(t, sender.delivered())
}

func TestDispatcherDropsWhenQueueIsFull(t *testing.T) {
	block := make(chan struct{})
	sender := &recordingSender{block: block}

	dispatcher := mailer.NewDispatcher(sender, mailer.WithQueueSize(1))

	// first enqueue is picked up by the worker and parks on the sender,
	// second fills the queue, third has nowhere to go
	require.NoError(t, dispatcher.SendActivationLink(context.Background(), "one@example.com", "t"))
	require.NoError(t, dispatcher.SendActivationLink(context.Background(), "two@example.com", "t"))
	require.NoError(t, dispatcher.SendActivationLink(context.Background(), "three@example.com", "t"))

	close(block)
	dispatcher.Close()

	assert.LessOrEqual(t, len(sender.delivered()), 2)
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	dispatcher := mailer.NewDispatcher(&recordingSender{})

	dispatcher.Close()
	assert.NotPanics(t, func() { dispatcher.Close() })
}
