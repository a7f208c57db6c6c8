package model

// WordCase tags how a word's timing was obtained
type WordCase string

const (
	CaseAligned      WordCase = "aligned"      // Timing came from the forced aligner
	CaseUnaligned    WordCase = "unaligned"    // Aligner failed on this word
	CaseInterpolated WordCase = "interpolated" // Timing interpolated between aligned neighbors
	CaseNoNarration  WordCase = "no-narration" // Synthetic span for a clip with no spoken words
)

// TimedText is one word or span of a paragraph with character and time ranges.
// Character offsets are half-open [CharStart, CharEnd) and, once a paragraph is
// finalized, relative to the paragraph's cleaned display text. Times are in
// milliseconds from the start of the clip.
type TimedText struct {
	Source    string   `json:"source,omitempty"` // Raw token as emitted by the aligner
	Text      string   `json:"text"`             // Cleaned token text
	CharStart int      `json:"char_start"`
	CharEnd   int      `json:"char_end"`
	TimeStart int64    `json:"time_start"` // ms
	TimeEnd   int64    `json:"time_end"`   // ms
	Case      WordCase `json:"case"`
}

// Duration returns the word's time span in milliseconds
func (t TimedText) Duration() int64 {
	return t.TimeEnd - t.TimeStart
}

// AlignedParagraph is one contiguous transcript paragraph after formatting.
// SourceStart/SourceEnd index into the original (possibly truncated) transcript;
// word offsets index into Text, the cleaned display text. Invariant after
// boundary expansion: word ranges partition [0, len(Text)) with no gaps.
type AlignedParagraph struct {
	SourceStart int         `json:"source_start"`
	SourceEnd   int         `json:"source_end"`
	Text        string      `json:"text"`
	Words       []TimedText `json:"words"`
}

// TimeStart returns the start time of the paragraph's first word, or 0
func (p *AlignedParagraph) TimeStart() int64 {
	if len(p.Words) == 0 {
		return 0
	}
	return p.Words[0].TimeStart
}

// TimeEnd returns the end time of the paragraph's last word, or 0
func (p *AlignedParagraph) TimeEnd() int64 {
	if len(p.Words) == 0 {
		return 0
	}
	return p.Words[len(p.Words)-1].TimeEnd
}

// Duration returns the paragraph's time span in milliseconds
func (p *AlignedParagraph) Duration() int64 {
	return p.TimeEnd() - p.TimeStart()
}

// IsNoNarration reports whether this is the synthetic no-narration paragraph
func (p *AlignedParagraph) IsNoNarration() bool {
	return len(p.Words) == 1 && p.Words[0].Case == CaseNoNarration
}

// AlignmentResult is the output of the alignment formatter for one segment
type AlignmentResult struct {
	Transcript string             `json:"transcript"` // Possibly truncated at a dropped trailing run
	DurationMs int64              `json:"duration_ms"`
	Paragraphs []AlignedParagraph `json:"paragraphs"`
}

// RawWord is one word of raw forced-alignment output as supplied by the
// external aligner. Character offsets index into the full transcript; times
// are in seconds as emitted by the tool.
type RawWord struct {
	Text      string  `json:"text"`
	Aligned   bool    `json:"aligned"` // Per-word success flag from the aligner
	CharStart int     `json:"char_start"`
	CharEnd   int     `json:"char_end"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
}
