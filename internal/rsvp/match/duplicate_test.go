package match_test

import (
	"testing"

	"github.com/brudebord/rsvp/internal/rsvp/match"
	"github.com/stretchr/testify/require"
)

func TestExtractPeople(t *testing.T) {
	t.Parallel()

	t.Run("prefers explicit name fields", func(t *testing.T) {
		people := match.ExtractPeople(match.CandidateRecord{
			ID:        "1",
			Name:      "Someone Else",
			FirstName: "Ola",
			LastName:  "Nordmann",
		})
		require.Equal(t, []match.Person{{FirstName: "Ola", LastName: "Nordmann"}}, people)
	})

	t.Run("derives primary from legacy combined name", func(t *testing.T) {
		people := match.ExtractPeople(match.CandidateRecord{ID: "1", Name: "Mary Jane Watson"})
		require.Equal(t, []match.Person{{FirstName: "Mary", LastName: "Jane Watson"}}, people)
	})

	t.Run("appends party members in stored order", func(t *testing.T) {
		people := match.ExtractPeople(match.CandidateRecord{
			ID:        "1",
			FirstName: "Ola",
			LastName:  "Nordmann",
			Party:     `[{"firstName":"Kari","lastName":"Nordmann","attending":true},{"firstName":"Per","lastName":"Hansen","attending":false}]`,
		})
		require.Equal(t, []match.Person{
			{FirstName: "Ola", LastName: "Nordmann"},
			{FirstName: "Kari", LastName: "Nordmann"},
			{FirstName: "Per", LastName: "Hansen"},
		}, people)
	})

	t.Run("decodes double-encoded party", func(t *testing.T) {
		people := match.ExtractPeople(match.CandidateRecord{
			ID:        "1",
			FirstName: "Ola",
			LastName:  "Nordmann",
			Party:     `"[{\"firstName\":\"Kari\",\"lastName\":\"Nordmann\",\"attending\":true}]"`,
		})
		require.Len(t, people, 2)
		require.Equal(t, "Kari", people[1].FirstName)
	})

	t.Run("malformed party degrades to primary only", func(t *testing.T) {
		people := match.ExtractPeople(match.CandidateRecord{
			ID:        "1",
			FirstName: "Ola",
			LastName:  "Nordmann",
			Party:     `{"not":"an array"`,
		})
		require.Equal(t, []match.Person{{FirstName: "Ola", LastName: "Nordmann"}}, people)
	})
}

func TestCheckForDuplicates(t *testing.T) {
	t.Parallel()

	ola := match.Person{FirstName: "Ola", LastName: "Nordmann"}

	t.Run("no candidates", func(t *testing.T) {
		result := match.CheckForDuplicates(ola, nil, nil)
		require.False(t, result.IsDuplicate)
		require.Nil(t, result.Candidate)
		require.Empty(t, result.Matches)
	})

	t.Run("returns first matching candidate only", func(t *testing.T) {
		candidates := []match.CandidateRecord{
			{ID: "a", FirstName: "Greta", LastName: "Svendsen"},
			{ID: "b", FirstName: "Ola", LastName: "Nordmann"},
			{ID: "c", FirstName: "Ola", LastName: "Nordmann"},
		}

		result := match.CheckForDuplicates(ola, nil, candidates)
		require.True(t, result.IsDuplicate)
		require.NotNil(t, result.Candidate)
		require.Equal(t, "b", result.Candidate.ID)
		require.Len(t, result.Matches, 1)
		require.Equal(t, ola, result.Matches[0].NewPerson)
	})

	t.Run("duplicate candidate ids are evaluated once", func(t *testing.T) {
		record := match.CandidateRecord{ID: "b", FirstName: "Ola", LastName: "Nordmann"}

		once := match.CheckForDuplicates(ola, nil, []match.CandidateRecord{record})
		twice := match.CheckForDuplicates(ola, nil, []match.CandidateRecord{record, record})

		require.Equal(t, once, twice)
		require.Len(t, twice.Matches, 1)
	})

	t.Run("party member of new submission matches existing primary", func(t *testing.T) {
		newPrimary := match.Person{FirstName: "Greta", LastName: "Svendsen"}
		newParty := []match.Person{{FirstName: "Kari", LastName: "Nordmann"}}

		result := match.CheckForDuplicates(newPrimary, newParty, []match.CandidateRecord{
			{ID: "x", FirstName: "Kari", LastName: "Nordmann"},
		})

		require.True(t, result.IsDuplicate)
		require.Equal(t, newParty[0], result.Matches[0].NewPerson)
	})

	t.Run("existing party member matches new primary", func(t *testing.T) {
		result := match.CheckForDuplicates(ola, nil, []match.CandidateRecord{
			{
				ID:        "y",
				FirstName: "Greta",
				LastName:  "Svendsen",
				Party:     `[{"firstName":"Ola","lastName":"Nordmann","attending":true}]`,
			},
		})

		require.True(t, result.IsDuplicate)
		require.Equal(t, match.Person{FirstName: "Ola", LastName: "Nordmann"}, result.Matches[0].ExistingPerson)
	})

	t.Run("hyphenated first name variant is flagged", func(t *testing.T) {
		// "Ola-M" normalizes to the fused token "olam"; "ola" is a prefix,
		// so the two submissions collide on the first-name rule as well as
		// the exact last-name token.
		result := match.CheckForDuplicates(
			match.Person{FirstName: "Ola-M", LastName: "Nordmann"},
			nil,
			[]match.CandidateRecord{{ID: "z", Email: "a@x.com", FirstName: "Ola", LastName: "Nordmann"}},
		)

		require.True(t, result.IsDuplicate)
		require.Equal(t, "z", result.Candidate.ID)
	})
}
