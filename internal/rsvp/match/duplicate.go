package match

import (
	"encoding/json"
	"strings"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
)

// CandidateRecord is a read-only projection of a stored RSVP as consumed by
// the duplicate detector. Legacy rows may only carry the combined Name field;
// Party holds the raw JSON text of the party column and may be empty or
// malformed.
type CandidateRecord struct {
	ID        string
	Email     string
	Name      string // legacy combined "First Last" field
	FirstName string
	LastName  string
	Party     string // JSON array of party members, possibly double-encoded
}

// MatchPair explains one person-level collision between a new submission and
// an existing record.
type MatchPair struct {
	NewPerson      Person
	ExistingPerson Person
}

// DuplicateMatch is the detector result. IsDuplicate is true iff Matches is
// non-empty, in which case Candidate is the first candidate (in input order)
// that produced a match.
type DuplicateMatch struct {
	IsDuplicate bool
	Candidate   *CandidateRecord
	Matches     []MatchPair
}

// ExtractPeople flattens a candidate record into the people it mentions:
// the primary person first, then party members in stored order. The primary
// prefers the explicit first/last fields and falls back to splitting the
// legacy combined name ("Mary Jane Watson" -> "Mary" + "Jane Watson").
// Malformed party JSON degrades to no party; this never fails.
func ExtractPeople(rec CandidateRecord) []Person {
	primary := Person{FirstName: rec.FirstName, LastName: rec.LastName}
	if primary.FirstName == "" && primary.LastName == "" {
		fields := strings.Fields(rec.Name)
		if len(fields) > 0 {
			primary.FirstName = fields[0]
			primary.LastName = strings.Join(fields[1:], " ")
		}
	}

	people := []Person{primary}
	for _, m := range decodeParty(rec.Party) {
		people = append(people, Person{FirstName: m.FirstName, LastName: m.LastName})
	}
	return people
}

// decodeParty parses the raw party column. Early records stored the array
// JSON-encoded twice, so a failed array decode retries through an inner
// string. Anything unparseable is treated as an empty party.
func decodeParty(raw string) []domain.PartyMember {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var members []domain.PartyMember
	if err := json.Unmarshal([]byte(raw), &members); err == nil {
		return members
	}

	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(inner), &members); err != nil {
		return nil
	}
	return members
}

// CheckForDuplicates tests a new submission (primary plus party) against
// candidate records fetched from storage. Callers may supply overlapping
// candidate sets from multiple lookup queries; records are deduplicated by ID
// first (first seen wins) so no record is evaluated or returned twice. The
// search stops at the first candidate with at least one matching person pair:
// only one existing record needs surfacing for manual resolution.
func CheckForDuplicates(newPrimary Person, newParty []Person, candidates []CandidateRecord) DuplicateMatch {
	seen := make(map[string]struct{}, len(candidates))
	newPeople := append([]Person{newPrimary}, newParty...)

	for i := range candidates {
		candidate := candidates[i]
		if _, dup := seen[candidate.ID]; dup {
			continue
		}
		seen[candidate.ID] = struct{}{}

		existingPeople := ExtractPeople(candidate)

		var pairs []MatchPair
		for _, incoming := range newPeople {
			for _, existing := range existingPeople {
				if PersonMatches(incoming, existing) {
					pairs = append(pairs, MatchPair{
						NewPerson:      incoming,
						ExistingPerson: existing,
					})
				}
			}
		}

		if len(pairs) > 0 {
			return DuplicateMatch{
				IsDuplicate: true,
				Candidate:   &candidate,
				Matches:     pairs,
			}
		}
	}

	return DuplicateMatch{}
}
