package model

// Severity levels for quality signals
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Quality signal types
const (
	SignalCueCompliance  = "cue_compliance"
	SignalLineDiscipline = "line_discipline"
	SignalTimingFidelity = "timing_fidelity"
	SignalLocationRate   = "location_resolution"
	SignalOrgRate        = "organization_resolution"
	SignalConflictAbort  = "conflict_abort"
)

// Signal is one diagnostic observation contributing to a quality score
type Signal struct {
	Type        string         `json:"type"`
	Severity    string         `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// QualityScore summarizes how clean a report is on a 0-100 index. The index
// is advisory; it never gates output.
type QualityScore struct {
	Index   int      `json:"index"`
	Grade   string   `json:"grade"`
	Signals []Signal `json:"signals,omitempty"`
}
