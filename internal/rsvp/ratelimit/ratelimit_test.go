package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Slide(context.Context, string, string, time.Time, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("connection refused")
}

// clockedLimiter returns a limiter over a MemoryStore whose notion of "now"
// the test can advance.
func clockedLimiter(t *testing.T) (*Limiter, *time.Time) {
	t.Helper()

	now := time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC)
	l := New(NewMemoryStore())
	l.now = func() time.Time { return now }
	return l, &now
}

func TestKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "rl:sw:rsvp:ip:203.0.113.9", Key(PurposeRSVP, DimensionIP, "203.0.113.9"))
	require.Equal(t, "rl:sw:token:email:a@x.com", Key(PurposeToken, DimensionEmail, "a@x.com"))
}

func TestCheckMonotonicAdmission(t *testing.T) {
	t.Parallel()

	l, now := clockedLimiter(t)
	ctx := context.Background()
	key := Key(PurposeRSVP, DimensionIP, "203.0.113.1")

	for i := 1; i <= 3; i++ {
		res := l.Check(ctx, key, 3, time.Minute)
		require.False(t, res.Limited, "admission %d", i)
		require.Equal(t, int64(i), res.Count)
		require.Equal(t, 3-i, res.Remaining)
		*now = now.Add(time.Second)
	}

	// The 4th call within the window is rejected, and its own add still
	// consumed a slot.
	res := l.Check(ctx, key, 3, time.Minute)
	require.True(t, res.Limited)
	require.Equal(t, int64(4), res.Count)
	require.Equal(t, 0, res.Remaining)
	require.Positive(t, res.RetryAfterSeconds)
}

func TestCheckWindowExpiry(t *testing.T) {
	t.Parallel()

	l, now := clockedLimiter(t)
	ctx := context.Background()
	key := Key(PurposeRSVP, DimensionEmail, "a@x.com")

	for range 3 {
		l.Check(ctx, key, 3, time.Minute)
	}

	// Advance past the window: old entries are pruned, the key starts over.
	*now = now.Add(time.Minute + time.Second)

	res := l.Check(ctx, key, 3, time.Minute)
	require.False(t, res.Limited)
	require.Equal(t, int64(1), res.Count)
}

func TestCheckSlidingBoundary(t *testing.T) {
	t.Parallel()

	l, now := clockedLimiter(t)
	ctx := context.Background()
	key := Key(PurposeRSVP, DimensionDevice, "dev-1")

	l.Check(ctx, key, 2, time.Minute)
	*now = now.Add(40 * time.Second)
	l.Check(ctx, key, 2, time.Minute)

	// 61s after the first admission: only the second remains in the window.
	*now = now.Add(21 * time.Second)
	res := l.Check(ctx, key, 2, time.Minute)
	require.False(t, res.Limited)
	require.Equal(t, int64(2), res.Count)
}

func TestCheckKeysAreIndependent(t *testing.T) {
	t.Parallel()

	l, _ := clockedLimiter(t)
	ctx := context.Background()

	for range 3 {
		l.Check(ctx, Key(PurposeRSVP, DimensionIP, "203.0.113.1"), 2, time.Minute)
	}

	res := l.Check(ctx, Key(PurposeRSVP, DimensionIP, "203.0.113.2"), 2, time.Minute)
	require.False(t, res.Limited)
	require.Equal(t, int64(1), res.Count)
}

func TestCheckFailsOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("store errors", func(t *testing.T) {
		l := New(failingStore{})
		for range 10 {
			res := l.Check(ctx, "rl:sw:rsvp:ip:x", 1, time.Minute)
			require.False(t, res.Limited)
		}
	})

	t.Run("nil store", func(t *testing.T) {
		l := New(nil)
		res := l.Check(ctx, "rl:sw:rsvp:ip:x", 1, time.Minute)
		require.False(t, res.Limited)
		require.Equal(t, 1, res.Remaining)
	})

	t.Run("explicitly disabled", func(t *testing.T) {
		l := NewDisabled()
		for range 10 {
			require.False(t, l.Check(ctx, "rl:sw:rsvp:ip:x", 1, time.Minute).Limited)
		}
	})

	t.Run("nil limiter", func(t *testing.T) {
		var l *Limiter
		require.False(t, l.Check(ctx, "rl:sw:rsvp:ip:x", 1, time.Minute).Limited)
	})
}

func TestMemoryStorePrunesStaleMembers(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC)

	count, ttl, err := s.Slide(ctx, "k", "m1", base, time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Equal(t, time.Minute, ttl)

	count, _, err = s.Slide(ctx, "k", "m2", base.Add(2*time.Minute), time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count, "lapsed key should restart empty")
}
