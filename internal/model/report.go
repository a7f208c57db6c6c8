package model

import "time"

// CaptionReport is the complete output of captioning one segment
type CaptionReport struct {
	RunID       string            `json:"run_id"`
	SegmentID   string            `json:"segment_id,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	DurationMs  int64             `json:"duration_ms"`
	Transcript  string            `json:"transcript"`
	Cues        []CaptionCue      `json:"cues"`
	Validation  CaptionValidation `json:"validation"`
	Quality     QualityScore      `json:"quality"`
}

// ResolutionReport is the complete output of entity resolution for one story
type ResolutionReport struct {
	RunID       string    `json:"run_id"`
	StoryID     string    `json:"story_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`

	Locations           []LocationEntity     `json:"locations"`
	UnresolvedLocations []NamedEntity        `json:"unresolved_locations"`
	Organizations       []OrganizationEntity `json:"organizations"`
	UnresolvedOrgs      []NamedEntity        `json:"unresolved_organizations"`

	Quality QualityScore `json:"quality"`

	// Aborted is set when organization resolution hit an internal ID
	// conflict and the story was abandoned rather than guessed at.
	Aborted bool `json:"aborted,omitempty"`
}
