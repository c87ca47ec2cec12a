package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/store"
)

func TestAdminRSVPManagement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultRateLimits())
	admin := &AdminService{Store: f.store}

	rec, err := f.rsvps.Submit(ctx, submitInput("ola@example.com", "Ola", "Nordmann"))
	require.NoError(t, err)

	t.Run("update", func(t *testing.T) {
		got, err := admin.UpdateRSVP(ctx, "admin-1", rec.ID, AdminUpdateInput{
			Email:     rec.Email,
			FirstName: "Ola",
			LastName:  "Nordmann",
			Attending: false,
			Dietary:   "gluten free",
		})
		require.NoError(t, err)
		require.False(t, got.Attending)
		require.Equal(t, "gluten free", got.Dietary)
	})

	t.Run("update unknown id", func(t *testing.T) {
		_, err := admin.UpdateRSVP(ctx, "admin-1", "nope", AdminUpdateInput{})
		require.ErrorIs(t, err, ErrRSVPNotFound)
	})

	t.Run("party operations", func(t *testing.T) {
		got, err := admin.AddGuest(ctx, "admin-1", rec.ID, domain.PartyMember{FirstName: "Kari", LastName: "Nordmann", Attending: true})
		require.NoError(t, err)
		require.Len(t, got.Party, 1)

		got, err = admin.UpdateGuest(ctx, "admin-1", rec.ID, 0, domain.PartyMember{FirstName: "Kari", LastName: "Hansen", Attending: false})
		require.NoError(t, err)
		require.Equal(t, "Hansen", got.Party[0].LastName)
		require.False(t, got.Party[0].Attending)

		_, err = admin.UpdateGuest(ctx, "admin-1", rec.ID, 5, domain.PartyMember{})
		require.ErrorIs(t, err, ErrGuestIndexOutOfRange)

		got, err = admin.RemoveGuest(ctx, "admin-1", rec.ID, 0)
		require.NoError(t, err)
		require.Empty(t, got.Party)

		_, err = admin.RemoveGuest(ctx, "admin-1", rec.ID, 0)
		require.ErrorIs(t, err, ErrGuestIndexOutOfRange)
	})

	t.Run("audit trail records each mutation", func(t *testing.T) {
		entries, err := admin.ListAuditEntries(ctx, 0, 0)
		require.NoError(t, err)
		require.NotEmpty(t, entries)

		actions := make(map[string]bool)
		for _, e := range entries {
			require.Equal(t, "admin-1", e.Actor)
			actions[e.Action] = true
		}
		require.True(t, actions[domain.AuditActionUpdateRSVP])
		require.True(t, actions[domain.AuditActionAddGuest])
		require.True(t, actions[domain.AuditActionUpdateGuest])
		require.True(t, actions[domain.AuditActionRemoveGuest])
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, admin.DeleteRSVP(ctx, "admin-1", rec.ID))
		_, err := admin.GetRSVP(ctx, rec.ID)
		require.ErrorIs(t, err, ErrRSVPNotFound)

		require.ErrorIs(t, admin.DeleteRSVP(ctx, "admin-1", rec.ID), ErrRSVPNotFound)
	})
}

func TestAdminMoveGuest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultRateLimits())
	admin := &AdminService{Store: f.store}

	a := submitInput("a@example.com", "Ola", "Nordmann")
	a.Party = []domain.PartyMember{{FirstName: "Per", LastName: "Olsen", Attending: true}}
	recA, err := f.rsvps.Submit(ctx, a)
	require.NoError(t, err)

	recB, err := f.rsvps.Submit(ctx, submitInput("b@example.com", "Kari", "Hansen"))
	require.NoError(t, err)

	require.NoError(t, admin.MoveGuest(ctx, "admin-1", recA.ID, 0, recB.ID))

	gotA, err := admin.GetRSVP(ctx, recA.ID)
	require.NoError(t, err)
	require.Empty(t, gotA.Party)

	gotB, err := admin.GetRSVP(ctx, recB.ID)
	require.NoError(t, err)
	require.Len(t, gotB.Party, 1)
	require.Equal(t, "Per", gotB.Party[0].FirstName)

	t.Run("bad index", func(t *testing.T) {
		require.ErrorIs(t, admin.MoveGuest(ctx, "admin-1", recA.ID, 0, recB.ID), ErrGuestIndexOutOfRange)
	})

	t.Run("same record", func(t *testing.T) {
		require.ErrorIs(t, admin.MoveGuest(ctx, "admin-1", recB.ID, 0, recB.ID), ErrGuestIndexOutOfRange)
	})
}

func TestAdminListAndSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultRateLimits())
	admin := &AdminService{Store: f.store}

	a := submitInput("a@example.com", "Ola", "Nordmann")
	a.Party = []domain.PartyMember{
		{FirstName: "Per", LastName: "Olsen", Attending: true},
		{FirstName: "Lise", LastName: "Olsen", Attending: false},
	}
	_, err := f.rsvps.Submit(ctx, a)
	require.NoError(t, err)

	b := submitInput("b@example.com", "Kari", "Hansen")
	b.Attending = false
	_, err = f.rsvps.Submit(ctx, b)
	require.NoError(t, err)

	t.Run("summary counts party members", func(t *testing.T) {
		sum, err := admin.Summarize(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 2, sum.Records)
		require.EqualValues(t, 2, sum.AttendingGuests)
	})

	t.Run("filter by attending", func(t *testing.T) {
		attending := true
		got, err := admin.ListRSVPs(ctx, store.RSVPFilter{Attending: &attending})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "Ola", got[0].FirstName)
	})

	t.Run("search", func(t *testing.T) {
		got, err := admin.ListRSVPs(ctx, store.RSVPFilter{Search: "hansen"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "Kari", got[0].FirstName)
	})
}

func TestAdminExportCSV(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultRateLimits())
	admin := &AdminService{Store: f.store}

	in := submitInput("ola@example.com", "Ola", "Nordmann")
	in.Party = []domain.PartyMember{{FirstName: "Kari", LastName: "Nordmann", Attending: false}}
	in.Dietary = "shellfish allergy"
	_, err := f.rsvps.Submit(ctx, in)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, admin.ExportCSV(ctx, "admin-1", &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "id", rows[0][0])

	row := rows[1]
	require.Equal(t, "ola@example.com", row[1])
	require.Equal(t, "Ola", row[2])
	require.Equal(t, "true", row[4])
	require.Equal(t, "1", row[5])
	require.Contains(t, row[6], "Kari Nordmann (not attending)")
	require.Equal(t, "shellfish allergy", row[7])

	t.Run("export is audited", func(t *testing.T) {
		entries, err := admin.ListAuditEntries(ctx, 0, 0)
		require.NoError(t, err)

		var found bool
		for _, e := range entries {
			if e.Action == domain.AuditActionExport {
				found = true
			}
		}
		require.True(t, found)
	})
}
