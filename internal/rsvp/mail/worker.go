package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultQueueSize   = 64
	defaultMaxAttempts = 3
)

// Worker drains a buffered queue of messages so HTTP handlers never wait on
// the email provider. Transient failures are retried with capped backoff;
// permanent failures are logged and dropped.
type Worker struct {
	sender      Sender
	queue       chan Message
	maxAttempts int
	backoff     func(attempt int) time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewWorker(sender Sender) *Worker {
	return &Worker{
		sender:      sender,
		queue:       make(chan Message, defaultQueueSize),
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func defaultBackoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 2 * time.Second
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}

// Enqueue queues msg for delivery and returns immediately. When the queue is
// full the message is dropped, not blocked on.
func (w *Worker) Enqueue(msg Message) {
	select {
	case w.queue <- msg:
	default:
		slog.Warn("mail queue full, dropping message", "to", msg.To, "subject", msg.Subject)
	}
}

// Run consumes the queue until Close is called. It blocks; run it in a
// goroutine.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case msg := <-w.queue:
			w.deliver(ctx, msg)
		case <-w.stop:
			// Drain what is already queued before exiting.
			for {
				select {
				case msg := <-w.queue:
					w.deliver(ctx, msg)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the worker and waits for queued messages to drain.
func (w *Worker) Close() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *Worker) deliver(ctx context.Context, msg Message) {
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.sender.Send(ctx, msg)
		if err == nil {
			slog.Debug("mail delivered", "to", msg.To, "subject", msg.Subject, "attempt", attempt)
			return
		}

		if !IsTransient(err) {
			slog.Error("mail rejected", "to", msg.To, "subject", msg.Subject, "error", err)
			return
		}

		if attempt == w.maxAttempts {
			slog.Error("mail delivery failed after retries", "to", msg.To, "subject", msg.Subject, "attempts", attempt, "error", err)
			return
		}

		slog.Warn("mail delivery failed, retrying", "to", msg.To, "attempt", attempt, "error", err)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return
		}
	}
}
