package match_test

import (
	"strings"
	"testing"

	"github.com/brudebord/rsvp/internal/rsvp/match"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "John", "john"},
		{"strips diacritics", "Sigvé", "sigve"},
		{"strips umlauts", "Müller", "muller"},
		{"deletes apostrophes", "O'Brien", "obrien"},
		{"fuses hyphenated names", "Smith-Jones", "smithjones"},
		{"collapses whitespace", "  Mary   Jane\tWatson ", "mary jane watson"},
		{"keeps digits", "Area 51", "area 51"},
		{"empty input", "", ""},
		{"punctuation only", "---''!!", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, match.Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"Sigvé Ødegård", "O'Brien", " Mary  Jane ", "Smith-Jones", "", "Ola-M"}
	for _, in := range inputs {
		once := match.Normalize(in)
		require.Equal(t, once, match.Normalize(once), "input %q", in)
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	t.Run("splits on whitespace", func(t *testing.T) {
		require.Equal(t, []string{"mary", "jane", "watson"}, match.Tokenize("Mary Jane  Watson"))
	})

	t.Run("empty input yields empty slice", func(t *testing.T) {
		require.Empty(t, match.Tokenize(""))
		require.Empty(t, match.Tokenize("   "))
	})

	t.Run("rejoined tokens equal normalized form", func(t *testing.T) {
		for _, in := range []string{"Mary Jane Watson", "  Sigvé  Ødegård ", "O'Brien"} {
			require.Equal(t, match.Normalize(in), strings.Join(match.Tokenize(in), " "))
		}
	})
}

func TestPersonMatches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b match.Person
		want bool
	}{
		{
			"identical names",
			match.Person{FirstName: "John", LastName: "Doe"},
			match.Person{FirstName: "John", LastName: "Doe"},
			true,
		},
		{
			"no last name never matches",
			match.Person{FirstName: "John", LastName: ""},
			match.Person{FirstName: "John", LastName: "Doe"},
			false,
		},
		{
			"prefix nickname",
			match.Person{FirstName: "Chris", LastName: "Smith"},
			match.Person{FirstName: "Christopher", LastName: "Smith"},
			true,
		},
		{
			"three-char rule misses mike/michael",
			match.Person{FirstName: "Mike", LastName: "Johnson"},
			match.Person{FirstName: "Michael", LastName: "Johnson"},
			false,
		},
		{
			"fused hyphenated last name contains plain one",
			match.Person{FirstName: "Anna", LastName: "Smith-Jones"},
			match.Person{FirstName: "Anna", LastName: "Smith"},
			true,
		},
		{
			"different last names",
			match.Person{FirstName: "John", LastName: "Doe"},
			match.Person{FirstName: "John", LastName: "Nordmann"},
			false,
		},
		{
			"last name matches but first names differ entirely",
			match.Person{FirstName: "Greta", LastName: "Doe"},
			match.Person{FirstName: "John", LastName: "Doe"},
			false,
		},
		{
			"multi-token last name exact",
			match.Person{FirstName: "Mary", LastName: "Jane Watson"},
			match.Person{FirstName: "Mary", LastName: "Jane Watson"},
			true,
		},
		{
			"diacritics ignored",
			match.Person{FirstName: "Sigvé", LastName: "Ødegard"},
			match.Person{FirstName: "Sigve", LastName: "Odegard"},
			true,
		},
		{
			"hyphen fused first name under three-char rule",
			match.Person{FirstName: "Ola-M", LastName: "Nordmann"},
			match.Person{FirstName: "Ola", LastName: "Nordmann"},
			true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, match.PersonMatches(tc.a, tc.b))
			// The relation is symmetric.
			require.Equal(t, tc.want, match.PersonMatches(tc.b, tc.a))
		})
	}
}
