// Package mail sends transactional email through an HTTP provider and keeps
// delivery off the request path with a background worker.
package mail

import (
	"context"
	"errors"
)

// Message is one outbound email. Text is the fallback body; HTML may be empty.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ErrTransient marks delivery failures worth retrying (timeouts, 5xx,
// provider rate limits). Anything else is treated as permanent.
var ErrTransient = errors.New("mail: transient delivery failure")

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
