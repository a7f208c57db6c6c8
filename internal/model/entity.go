package model

// EntityType is the coarse classification of a named-entity mention
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityLocation     EntityType = "location"
	EntityOrganization EntityType = "organization"
	EntityYear         EntityType = "year"
	EntityMisc         EntityType = "misc"
)

// CountryUS is the ISO 3166 numeric code for the United States. The
// reference gazetteer is US-only, so every resolved location carries it.
const CountryUS = 840

// NamedEntity is one candidate mention extracted from a transcript.
// Resolvers read it and fill in confidence; they never change the text
// or offset fields.
type NamedEntity struct {
	Text        string     `json:"text"`              // Raw mention as it appears in the transcript
	ContextText string     `json:"context,omitempty"` // Mention plus surrounding bracketed annotation
	Offset      int        `json:"offset"`            // Character start offset in the transcript
	Length      int        `json:"length"`
	Type        EntityType `json:"type"`
	Source      string     `json:"source,omitempty"` // Extraction tool hint, e.g. "stanford"
	DualCovered bool       `json:"dual_covered,omitempty"`
	Confidence  int        `json:"confidence"` // Cumulative evidence strength, 0-3
}

// End returns the character offset just past the mention
func (e NamedEntity) End() int {
	return e.Offset + e.Length
}

// LocationEntity is a NamedEntity resolved against the USGS gazetteer.
// Zero StateCode/PlaceCode means unresolved.
type LocationEntity struct {
	NamedEntity
	CountryCode int `json:"country_code"`
	StateCode   int `json:"state_code"`
	PlaceCode   int `json:"place_code"`
	Occurrences int `json:"occurrences"`
}

// Resolved reports whether the entity carries at least a state resolution
func (e LocationEntity) Resolved() bool {
	return e.StateCode != 0
}

// OrganizationEntity is a NamedEntity resolved against the Library of
// Congress name authority file. Empty AuthorityID means unresolved.
type OrganizationEntity struct {
	NamedEntity
	AuthorityID string `json:"authority_id"`
	Occurrences int    `json:"occurrences"`
}

// Resolved reports whether the entity carries an authority identifier
func (e OrganizationEntity) Resolved() bool {
	return e.AuthorityID != ""
}
