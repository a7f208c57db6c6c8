package caption

import (
	"log/slog"
	"strings"

	"github.com/oralatlas/tessera/internal/model"
)

// Captioner segments formatted alignment paragraphs into speaker-attributed
// caption cues obeying length and duration constraints. Generation never
// aborts on a per-cue problem; it degrades gracefully and reports counts.
type Captioner struct {
	cfg model.CaptionConfig
}

// NewCaptioner creates a captioner from caption configuration
func NewCaptioner(cfg model.CaptionConfig) *Captioner {
	def := model.DefaultConfig().Caption
	if cfg.MinCueMs <= 0 {
		cfg.MinCueMs = def.MinCueMs
	}
	if cfg.MaxCueMs <= 0 {
		cfg.MaxCueMs = def.MaxCueMs
	}
	if cfg.TargetLineMs <= 0 {
		cfg.TargetLineMs = def.TargetLineMs
	}
	if cfg.TargetLineChars <= 0 {
		cfg.TargetLineChars = def.TargetLineChars
	}
	if cfg.MaxLineChars <= 0 {
		cfg.MaxLineChars = def.MaxLineChars
	}
	if cfg.MaxCueLines <= 0 {
		cfg.MaxCueLines = def.MaxCueLines
	}
	if cfg.SpeakerRatio <= 0 {
		cfg.SpeakerRatio = def.SpeakerRatio
	}
	return &Captioner{cfg: cfg}
}

// Caption converts an alignment result into validated caption cues
func (c *Captioner) Caption(res *model.AlignmentResult) ([]model.CaptionCue, model.CaptionValidation) {
	cues := c.generate(res.Paragraphs)
	cues, unmergeable := c.coalesce(cues)
	validation := c.validate(cues)
	validation.Unmergeable = unmergeable
	return cues, validation
}

// leadSpeaker guesses which speaker opens the interview. Paragraphs are
// assumed to alternate speakers; the side with less total text is taken to
// be the interviewer asking short questions. A heuristic proxy, since no
// true diarization exists.
func (c *Captioner) leadSpeaker(paragraphs []model.AlignedParagraph) string {
	var even, odd int
	for i, p := range paragraphs {
		if p.IsNoNarration() {
			continue
		}
		if i%2 == 0 {
			even += len(p.Text)
		} else {
			odd += len(p.Text)
		}
	}
	if odd == 0 {
		return model.SpeakerInterviewer
	}
	if float64(even)/float64(odd) < c.cfg.SpeakerRatio {
		return model.SpeakerInterviewer
	}
	return model.SpeakerSubject
}

// generate is pass 1: one cue per produced line
func (c *Captioner) generate(paragraphs []model.AlignedParagraph) []model.CaptionCue {
	speaker := c.leadSpeaker(paragraphs)
	var cues []model.CaptionCue

	for _, p := range paragraphs {
		if p.IsNoNarration() {
			cues = append(cues, model.CaptionCue{Lines: []model.CueText{
				makeLine(&p, model.SpeakerNone, p.Words),
			}})
			continue
		}

		if p.Duration() > c.cfg.MaxCueMs || len(p.Text) > c.cfg.TargetLineChars {
			for _, line := range c.splitParagraph(&p, speaker) {
				cues = append(cues, model.CaptionCue{Lines: []model.CueText{line}})
			}
		} else {
			cues = append(cues, model.CaptionCue{Lines: []model.CueText{
				makeLine(&p, speaker, p.Words),
			}})
		}

		speaker = other(speaker)
	}
	return cues
}

// splitParagraph greedily consumes words into lines, closing a line when it
// reaches the target length, then the target duration, then word exhaustion.
// A short remaining tail is folded into the just-closed line when that does
// not push it past the maximum duration.
func (c *Captioner) splitParagraph(p *model.AlignedParagraph, speaker string) []model.CueText {
	words := p.Words
	var lines []model.CueText

	i := 0
	for i < len(words) {
		start := i
		startChar := words[i].CharStart
		startTime := words[i].TimeStart
		for i < len(words) {
			i++
			length := words[i-1].CharEnd - startChar
			dur := words[i-1].TimeEnd - startTime
			if length >= c.cfg.TargetLineChars || dur >= c.cfg.TargetLineMs {
				break
			}
		}

		if i < len(words) {
			tailDur := words[len(words)-1].TimeEnd - words[i].TimeStart
			closedDur := words[i-1].TimeEnd - startTime
			if tailDur < c.cfg.MinCueMs && closedDur+tailDur <= c.cfg.MaxCueMs {
				i = len(words)
			}
		}

		lines = append(lines, makeLine(p, speaker, words[start:i]))
	}
	return lines
}

func makeLine(p *model.AlignedParagraph, speaker string, words []model.TimedText) model.CueText {
	text := ""
	if len(words) > 0 {
		text = strings.TrimSpace(p.Text[words[0].CharStart:words[len(words)-1].CharEnd])
	}
	return model.CueText{Speaker: speaker, Text: text, Words: words}
}

func other(speaker string) string {
	if speaker == model.SpeakerInterviewer {
		return model.SpeakerSubject
	}
	return model.SpeakerInterviewer
}

// coalesce is pass 2: merge under-duration cues into an eligible neighbor.
// When both neighbors are eligible the one with the shorter duration wins.
// A cue with no eligible neighbor is logged and left as-is.
func (c *Captioner) coalesce(cues []model.CaptionCue) ([]model.CaptionCue, int) {
	unmergeable := 0
	i := 0
	for i < len(cues) {
		cue := cues[i]
		if cue.Duration() >= c.cfg.MinCueMs {
			i++
			continue
		}

		prevOK := i > 0 && c.eligible(&cues[i-1], &cue)
		nextOK := i+1 < len(cues) && c.eligible(&cues[i+1], &cue)

		switch {
		case prevOK && nextOK:
			if cues[i-1].Duration() <= cues[i+1].Duration() {
				nextOK = false
			} else {
				prevOK = false
			}
		case !prevOK && !nextOK:
			slog.Warn("cue below minimum duration with no eligible merge neighbor",
				"index", i, "duration_ms", cue.Duration())
			unmergeable++
			i++
			continue
		}

		if prevOK {
			cues[i-1] = merge(cues[i-1], cue)
			cues = append(cues[:i], cues[i+1:]...)
		} else {
			cues[i] = merge(cue, cues[i+1])
			cues = append(cues[:i+1], cues[i+2:]...)
		}
	}
	return cues, unmergeable
}

// eligible reports whether merging cue into neighbor keeps the combined span
// under the maximum duration and the combined line count within bounds
func (c *Captioner) eligible(neighbor, cue *model.CaptionCue) bool {
	lo := neighbor.TimeStart()
	if s := cue.TimeStart(); s < lo {
		lo = s
	}
	hi := neighbor.TimeEnd()
	if e := cue.TimeEnd(); e > hi {
		hi = e
	}
	if hi-lo > c.cfg.MaxCueMs {
		return false
	}
	return len(neighbor.Lines)+len(cue.Lines) <= c.cfg.MaxCueLines
}

// merge combines two cues in display order and collapses adjacent lines that
// share a speaker
func merge(a, b model.CaptionCue) model.CaptionCue {
	lines := make([]model.CueText, 0, len(a.Lines)+len(b.Lines))
	lines = append(lines, a.Lines...)
	lines = append(lines, b.Lines...)

	var collapsed []model.CueText
	for _, line := range lines {
		n := len(collapsed)
		if n > 0 && collapsed[n-1].Speaker == line.Speaker {
			prev := &collapsed[n-1]
			prev.Words = append(prev.Words, line.Words...)
			prev.Text = strings.TrimSpace(prev.Text + " " + line.Text)
			continue
		}
		collapsed = append(collapsed, line)
	}
	return model.CaptionCue{Lines: collapsed}
}

// validate is pass 3: non-mutating. It counts and logs violations of the
// duration, line-count, and line-length bounds. It always completes.
func (c *Captioner) validate(cues []model.CaptionCue) model.CaptionValidation {
	v := model.CaptionValidation{Cues: len(cues)}
	for i := range cues {
		cue := &cues[i]
		dur := cue.Duration()
		if dur < c.cfg.MinCueMs {
			slog.Warn("cue under minimum duration", "index", i, "duration_ms", dur)
			v.TooShort++
		}
		if dur > c.cfg.MaxCueMs {
			slog.Warn("cue over maximum duration", "index", i, "duration_ms", dur)
			v.TooLong++
		}
		if len(cue.Lines) > c.cfg.MaxCueLines {
			slog.Warn("cue has too many lines", "index", i, "lines", len(cue.Lines))
			v.TooManyLines++
		}
		for _, line := range cue.Lines {
			v.Lines++
			if line.Text == "" {
				slog.Warn("cue line has empty text", "index", i)
				v.EmptyText++
			}
			if line.Length() > c.cfg.MaxLineChars {
				slog.Warn("cue line over maximum length", "index", i, "length", line.Length())
				v.OverlongLines++
			}
		}
	}
	return v
}
