package model

// Speaker tags used by the captioner. No true diarization exists; the
// alternating-paragraph heuristic assigns these.
const (
	SpeakerInterviewer = "S1"
	SpeakerSubject     = "S2"
	SpeakerNone        = "" // no-narration cues carry no speaker
)

// CueText is one line of a caption cue: a speaker tag plus the words that
// make up the line. Text is the slice of the source paragraph covered by
// the line's word offsets.
type CueText struct {
	Speaker string      `json:"speaker"`
	Text    string      `json:"text"`
	Words   []TimedText `json:"words"`
}

// Length returns the character length of the line's display text
func (l *CueText) Length() int {
	return len(l.Text)
}

// TimeStart returns the start time of the line's first word, or 0
func (l *CueText) TimeStart() int64 {
	if len(l.Words) == 0 {
		return 0
	}
	return l.Words[0].TimeStart
}

// TimeEnd returns the end time of the line's last word, or 0
func (l *CueText) TimeEnd() int64 {
	if len(l.Words) == 0 {
		return 0
	}
	return l.Words[len(l.Words)-1].TimeEnd
}

// Duration returns the line's time span in milliseconds
func (l *CueText) Duration() int64 {
	return l.TimeEnd() - l.TimeStart()
}

// CaptionCue is one displayable caption unit of one or more lines
type CaptionCue struct {
	Lines []CueText `json:"lines"`
}

// TimeStart returns the minimum word start time across all lines
func (c *CaptionCue) TimeStart() int64 {
	first := true
	var min int64
	for _, l := range c.Lines {
		if len(l.Words) == 0 {
			continue
		}
		if ts := l.TimeStart(); first || ts < min {
			min = ts
			first = false
		}
	}
	return min
}

// TimeEnd returns the maximum word end time across all lines
func (c *CaptionCue) TimeEnd() int64 {
	var max int64
	for _, l := range c.Lines {
		if len(l.Words) == 0 {
			continue
		}
		if te := l.TimeEnd(); te > max {
			max = te
		}
	}
	return max
}

// Duration returns max word end minus min word start across all lines
func (c *CaptionCue) Duration() int64 {
	return c.TimeEnd() - c.TimeStart()
}

// CaptionValidation counts constraint violations found by the non-mutating
// validation pass. Violations are warnings, never fatal.
type CaptionValidation struct {
	Cues          int `json:"cues"`
	Lines         int `json:"lines"`
	TooShort      int `json:"too_short"`
	TooLong       int `json:"too_long"`
	TooManyLines  int `json:"too_many_lines"`
	EmptyText     int `json:"empty_text"`
	OverlongLines int `json:"overlong_lines"`
	Unmergeable   int `json:"unmergeable"` // under-duration cues with no eligible merge neighbor
}

// Clean reports whether no violations were counted
func (v CaptionValidation) Clean() bool {
	return v.TooShort == 0 && v.TooLong == 0 && v.TooManyLines == 0 &&
		v.EmptyText == 0 && v.OverlongLines == 0
}
