package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
)

func TestEditLinkFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultRateLimits())

	rec, err := f.rsvps.Submit(ctx, submitInput("ola@example.com", "Ola", "Nordmann"))
	require.NoError(t, err)
	token := f.mailer.lastToken(t)

	t.Run("resolve returns the record", func(t *testing.T) {
		got, err := f.links.Resolve(ctx, token)
		require.NoError(t, err)
		require.Equal(t, rec.ID, got.ID)
	})

	t.Run("update applies changes and verifies the record", func(t *testing.T) {
		updated, err := f.links.UpdateByToken(ctx, token, UpdateInput{
			Attending: true,
			Party:     []domain.PartyMember{{FirstName: "Kari", LastName: "Nordmann", Attending: true}},
			Dietary:   "vegetarian",
			Message:   "can't wait",
		})
		require.NoError(t, err)
		require.True(t, updated.Verified)
		require.Len(t, updated.Party, 1)
		require.Equal(t, "vegetarian", updated.Dietary)
	})

	t.Run("token is single use", func(t *testing.T) {
		_, err := f.links.Resolve(ctx, token)
		require.ErrorIs(t, err, ErrLinkNotFound)
	})

	t.Run("a fresh link was issued with the update", func(t *testing.T) {
		fresh := f.mailer.lastToken(t)
		require.NotEqual(t, token, fresh)

		got, err := f.links.Resolve(ctx, fresh)
		require.NoError(t, err)
		require.Equal(t, rec.ID, got.ID)
	})
}

func TestCancelByToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultRateLimits())

	in := submitInput("ola@example.com", "Ola", "Nordmann")
	in.Party = []domain.PartyMember{{FirstName: "Kari", LastName: "Nordmann", Attending: true}}
	rec, err := f.rsvps.Submit(ctx, in)
	require.NoError(t, err)

	token := f.mailer.lastToken(t)
	require.NoError(t, f.links.CancelByToken(ctx, token))

	got, err := f.store.RSVPs().GetRSVPByID(ctx, rec.ID)
	require.NoError(t, err)
	require.False(t, got.Attending)
	require.False(t, got.Party[0].Attending)
	require.True(t, got.Verified)

	// Consumed on cancel as well.
	require.ErrorIs(t, f.links.CancelByToken(ctx, token), ErrLinkNotFound)
}

func TestRequestEditLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultRateLimits())

	_, err := f.rsvps.Submit(ctx, submitInput("ola@example.com", "Ola", "Nordmann"))
	require.NoError(t, err)
	before := len(f.mailer.sent())

	t.Run("sends a link per matching record", func(t *testing.T) {
		require.NoError(t, f.links.RequestEditLink(ctx, "OLA@example.com", "203.0.113.50"))
		require.Len(t, f.mailer.sent(), before+1)
	})

	t.Run("unknown email is indistinguishable", func(t *testing.T) {
		count := len(f.mailer.sent())
		require.NoError(t, f.links.RequestEditLink(ctx, "ghost@example.com", "203.0.113.50"))
		require.Len(t, f.mailer.sent(), count)
	})

	t.Run("issuance is rate limited per email", func(t *testing.T) {
		f.links.RequestLimit = 2

		// First window slot was used above; one more is allowed.
		require.NoError(t, f.links.RequestEditLink(ctx, "ola@example.com", "203.0.113.51"))

		err := f.links.RequestEditLink(ctx, "ola@example.com", "203.0.113.52")
		var rl *RateLimitedError
		require.ErrorAs(t, err, &rl)
	})

	t.Run("rejects empty email", func(t *testing.T) {
		require.ErrorIs(t, f.links.RequestEditLink(ctx, "  ", "203.0.113.50"), ErrInvalidSubmission)
	})
}

func TestResolveUnknownToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultRateLimits())

	_, err := f.links.Resolve(ctx, "never-issued")
	require.ErrorIs(t, err, ErrLinkNotFound)

	_, err = f.links.Resolve(ctx, "")
	require.ErrorIs(t, err, ErrLinkNotFound)
}
