package mailer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

var (
	ErrQueueFull    = errors.New("mail queue is full")
	ErrOutboxClosed = errors.New("mail outbox is closed")
)

// Outbox queues emails in memory and delivers them on a background worker,
// retrying failed sends with exponential backoff. Delivery is at least once;
// queued mail is lost if the process exits before it is sent.
type Outbox struct {
	sender     Sender
	logger     *slog.Logger
	maxRetries uint64
	base       time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Email
	done   chan struct{}
}

func NewOutbox(sender Sender, logger *slog.Logger, size int, maxRetries uint64, base time.Duration) *Outbox {
	if base <= 0 {
		base = time.Second
	}
	return &Outbox{
		sender:     sender,
		logger:     logger,
		maxRetries: maxRetries,
		base:       base,
		queue:      make(chan Email, size),
		done:       make(chan struct{}),
	}
}

// Start runs the delivery worker until the outbox is closed and drained.
// Cancelling ctx aborts in-flight retries.
func (o *Outbox) Start(ctx context.Context) {
	go func() {
		defer close(o.done)
		for email := range o.queue {
			o.deliver(ctx, email)
		}
	}()
}

// Enqueue never blocks.
func (o *Outbox) Enqueue(email Email) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrOutboxClosed
	}
	select {
	case o.queue <- email:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting mail and waits for the queue to drain or ctx to end.
func (o *Outbox) Close(ctx context.Context) error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()

	select {
	case <-o.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Outbox) deliver(ctx context.Context, email Email) {
	attempts := 0
	backoff := retry.WithMaxRetries(o.maxRetries, retry.NewExponential(o.base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := o.sender.Send(ctx, email); err != nil {
			o.logger.Warn("email send failed",
				"email_id", email.ID,
				"subject", email.Subject,
				"attempt", attempts,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		o.logger.Error("email dropped after retries",
			"email_id", email.ID,
			"subject", email.Subject,
			"attempts", attempts,
			"error", err,
		)
		return
	}
	o.logger.Debug("email sent", "email_id", email.ID, "subject", email.Subject, "attempts", attempts)
}
