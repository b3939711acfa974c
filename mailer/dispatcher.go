package mailer

import (
	"context"
	"sync"
	"time"
)

// DefaultQueueSize bounds the outbound queue; an enqueue against a full
// queue drops the message and logs, it never blocks a request.
var DefaultQueueSize = 64

// DefaultSendTimeout bounds a single delivery attempt.
var DefaultSendTimeout = 30 * time.Second

type job struct {
	email string
	token string
}

// Dispatcher is a best-effort outbound queue: registration hands a message
// to the worker goroutine and returns immediately. Failures are logged and
// dropped, matching the fire-and-forget contract of the notification
// boundary.
type Dispatcher struct {
	sender      Sender
	logger      Logger
	jobs        chan job
	sendTimeout time.Duration
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// DispatcherOption customizes dispatcher construction.
type DispatcherOption func(*Dispatcher)

// WithQueueSize overrides the queue capacity.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.jobs = make(chan job, n)
		}
	}
}

// WithSendTimeout bounds each delivery attempt.
func WithSendTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if t > 0 {
			d.sendTimeout = t
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher starts the delivery worker and returns the queue handle.
func NewDispatcher(sender Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:      sender,
		logger:      noopLogger{},
		jobs:        make(chan job, DefaultQueueSize),
		sendTimeout: DefaultSendTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	d.wg.Add(1)
	go d.worker()

	return d
}

// SendActivationLink enqueues an activation email. The request context is
// deliberately not propagated to the delivery attempt: the message outlives
// the request that produced it.
func (d *Dispatcher) SendActivationLink(_ context.Context, email, token string) error {
	select {
	case d.jobs <- job{email: email, token: token}:
	default:
		d.logger.Error("outbound mail queue full, dropping activation email", "email", email)
	}
	return nil
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for j := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		if err := d.sender.SendActivationLink(ctx, j.email, j.token); err != nil {
			d.logger.Error("activation email delivery failed", "error", err, "email", j.email)
		}
		cancel()
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
