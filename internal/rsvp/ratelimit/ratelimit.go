// Package ratelimit implements a sliding-window rate limiter over a shared
// sorted-set store. Each key holds the timestamps of recent admissions
// bounded to the trailing window; pruning happens on every check rather than
// on a background timer, so the window is always accurate as of the call.
package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/brudebord/rsvp/pkg/slogx"
)

// Limiter purposes and dimensions, combined into store keys.
const (
	PurposeRSVP   = "rsvp"
	PurposeToken  = "token"
	PurposeVerify = "verify"

	DimensionIP     = "ip"
	DimensionDevice = "device"
	DimensionEmail  = "email"
)

// Key builds the store key for one limited entity.
func Key(purpose, dimension, value string) string {
	return fmt.Sprintf("rl:sw:%s:%s:%s", purpose, dimension, value)
}

// Result is the outcome of one admission check.
type Result struct {
	Limited           bool
	Remaining         int
	RetryAfterSeconds int
	Count             int64
}

// Store is the shared counter store backing the limiter. Slide must perform
// the whole add-prune-count-expire sequence atomically per key: the member is
// added with the current timestamp as score, members older than the window
// are pruned, the resulting cardinality is returned, and the key's TTL is
// refreshed to the window so idle keys disappear one window after last use.
type Store interface {
	Slide(ctx context.Context, key, member string, now time.Time, window time.Duration) (count int64, ttl time.Duration, err error)
}

// Limiter answers whether an action under a key should be admitted.
//
// The limiter fails open: with no store configured, with rate limiting
// disabled, or when the store errors, every check admits. Rate limiting is
// abuse prevention, and a store outage must not block legitimate RSVPs.
type Limiter struct {
	store    Store
	disabled bool
	now      func() time.Time
}

// New returns a limiter over the given store. A nil store disables limiting.
func New(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// NewDisabled returns a limiter that admits everything.
func NewDisabled() *Limiter {
	return &Limiter{disabled: true, now: time.Now}
}

// Check records an admission attempt under key and reports whether it is
// within limit for the trailing window. The just-recorded attempt is included
// in the count, so a rejected call still consumes a slot: retrying while
// limited keeps the caller limited.
func (l *Limiter) Check(ctx context.Context, key string, limit int, window time.Duration) Result {
	open := Result{Limited: false, Remaining: limit}
	if l == nil || l.disabled || l.store == nil {
		return open
	}

	now := l.now()
	member := fmt.Sprintf("%d-%s", now.UnixMilli(), nonce())

	count, ttl, err := l.store.Slide(ctx, key, member, now, window)
	if err != nil {
		slogx.FromContext(ctx).Warn("rate limit store unavailable, failing open",
			"key", key, "err", err)
		return open
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Limited:           count > int64(limit),
		Remaining:         remaining,
		RetryAfterSeconds: int((ttl + time.Second - 1) / time.Second),
		Count:             count,
	}
}

// nonce separates two admissions landing in the same millisecond; without it
// the store would coalesce their members and undercount.
func nonce() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
