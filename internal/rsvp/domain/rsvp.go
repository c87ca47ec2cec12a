package domain

import "time"

// RSVP is one submitted attendance response. An RSVP is owned by its primary
// person; additional guests live in Party and have no independent identity.
type RSVP struct {
	ID        string
	Email     string // optional
	Name      string // legacy combined "First Last" field from early imports
	FirstName string
	LastName  string
	Attending bool
	Party     []PartyMember
	RawParty  string // party column as stored; legacy rows may hold malformed JSON
	Dietary   string
	Message   string
	Verified  bool // email ownership confirmed via an edit link
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the best available name for listings and emails.
func (r RSVP) DisplayName() string {
	if r.FirstName != "" || r.LastName != "" {
		if r.LastName == "" {
			return r.FirstName
		}
		if r.FirstName == "" {
			return r.LastName
		}
		return r.FirstName + " " + r.LastName
	}
	return r.Name
}

// PartyMember is an additional guest attached to one RSVP. Removing one is an
// array splice, there is no soft delete.
type PartyMember struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Attending bool   `json:"attending"`
}
