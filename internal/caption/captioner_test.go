package caption

import (
	"strings"
	"testing"

	"github.com/oralatlas/tessera/internal/model"
)

// makePara builds a paragraph whose word spans partition the text and whose
// word times divide [startMs, endMs] evenly.
func makePara(text string, startMs, endMs int64) model.AlignedParagraph {
	tokens := strings.Fields(text)
	words := make([]model.TimedText, len(tokens))
	step := (endMs - startMs) / int64(len(tokens))
	off := 0
	for i, tok := range tokens {
		start := strings.Index(text[off:], tok) + off
		words[i] = model.TimedText{
			Source:    tok,
			Text:      tok,
			CharStart: start,
			CharEnd:   start + len(tok),
			TimeStart: startMs + step*int64(i),
			TimeEnd:   startMs + step*int64(i+1),
			Case:      model.CaseAligned,
		}
		off = start + len(tok)
	}
	words[len(words)-1].TimeEnd = endMs
	words[0].CharStart = 0
	for i := 0; i+1 < len(words); i++ {
		words[i].CharEnd = words[i+1].CharStart
	}
	words[len(words)-1].CharEnd = len(text)
	return model.AlignedParagraph{SourceEnd: len(text), Text: text, Words: words}
}

func noNarrationPara(text string, startMs, endMs int64) model.AlignedParagraph {
	return model.AlignedParagraph{
		SourceEnd: len(text),
		Text:      text,
		Words: []model.TimedText{{
			Text:      text,
			CharStart: 0,
			CharEnd:   len(text),
			TimeStart: startMs,
			TimeEnd:   endMs,
			Case:      model.CaseNoNarration,
		}},
	}
}

func timedLine(speaker, text string, start, end int64) model.CueText {
	return model.CueText{
		Speaker: speaker,
		Text:    text,
		Words:   []model.TimedText{{Text: text, TimeStart: start, TimeEnd: end}},
	}
}

func newTestCaptioner() *Captioner {
	return NewCaptioner(model.DefaultConfig().Caption)
}

func TestCaptionAlternatesSpeakers(t *testing.T) {
	res := &model.AlignmentResult{
		DurationMs: 6000,
		Paragraphs: []model.AlignedParagraph{
			makePara("Where were you born?", 0, 3000),
			makePara("I was born in New Orleans back in 1931.", 3000, 6000),
		},
	}

	c := newTestCaptioner()
	cues, validation := c.Caption(res)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	// The shorter even side marks the interviewer asking questions.
	if got := cues[0].Lines[0].Speaker; got != model.SpeakerInterviewer {
		t.Errorf("first cue speaker = %q, want %q", got, model.SpeakerInterviewer)
	}
	if got := cues[1].Lines[0].Speaker; got != model.SpeakerSubject {
		t.Errorf("second cue speaker = %q, want %q", got, model.SpeakerSubject)
	}
	if !validation.Clean() {
		t.Errorf("expected clean validation, got %+v", validation)
	}
}

func TestCaptionSubjectLeadsWhenEvenSideLonger(t *testing.T) {
	res := &model.AlignmentResult{
		DurationMs: 6000,
		Paragraphs: []model.AlignedParagraph{
			makePara("I grew up on a small farm outside Jackson.", 0, 3000),
			makePara("And after that?", 3000, 6000),
		},
	}

	c := newTestCaptioner()
	cues, _ := c.Caption(res)
	if got := cues[0].Lines[0].Speaker; got != model.SpeakerSubject {
		t.Errorf("first cue speaker = %q, want %q", got, model.SpeakerSubject)
	}
}

func TestCaptionNoNarrationCue(t *testing.T) {
	res := &model.AlignmentResult{
		DurationMs: 10000,
		Paragraphs: []model.AlignedParagraph{
			makePara("Tell me about the flood.", 0, 3000),
			noNarrationPara("Sound of rain on the roof.", 3000, 7000),
			makePara("It came up fast that year.", 7000, 10000),
		},
	}

	c := newTestCaptioner()
	cues, _ := c.Caption(res)
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}
	if got := cues[1].Lines[0].Speaker; got != model.SpeakerNone {
		t.Errorf("no-narration cue speaker = %q, want none", got)
	}
	// The silent span does not flip the alternation.
	if got := cues[2].Lines[0].Speaker; got == cues[0].Lines[0].Speaker {
		t.Errorf("speaker did not alternate across the silent span")
	}
}

func TestCaptionSplitsOversizedParagraph(t *testing.T) {
	// 12 words, 1s each: lines close on the 4s duration target.
	text := strings.TrimSpace(strings.Repeat("abcdefghi ", 12))
	res := &model.AlignmentResult{
		DurationMs: 12000,
		Paragraphs: []model.AlignedParagraph{makePara(text, 0, 12000)},
	}

	c := newTestCaptioner()
	cues, validation := c.Caption(res)
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}

	var parts []string
	for _, cue := range cues {
		for _, line := range cue.Lines {
			parts = append(parts, line.Text)
		}
	}
	if got := strings.Join(parts, " "); got != text {
		t.Errorf("cue text does not reassemble the paragraph:\ngot  %q\nwant %q", got, text)
	}
	if !validation.Clean() {
		t.Errorf("expected clean validation, got %+v", validation)
	}
}

func TestCaptionFoldsShortTail(t *testing.T) {
	// Five 1s words: the first line closes at 4s and the 1s tail folds in.
	text := strings.TrimSpace(strings.Repeat("abcdefghijklmn ", 5))
	res := &model.AlignmentResult{
		DurationMs: 5000,
		Paragraphs: []model.AlignedParagraph{makePara(text, 0, 5000)},
	}

	c := newTestCaptioner()
	cues, _ := c.Caption(res)
	if len(cues) != 1 {
		t.Fatalf("expected the tail to fold into 1 cue, got %d", len(cues))
	}
	if got := len(cues[0].Lines[0].Words); got != 5 {
		t.Errorf("folded line has %d words, want 5", got)
	}
}

func TestCoalesceMergesIntoShorterNeighbor(t *testing.T) {
	cues := []model.CaptionCue{
		{Lines: []model.CueText{timedLine(model.SpeakerSubject, "first part", 0, 3000)}},
		{Lines: []model.CueText{timedLine(model.SpeakerSubject, "short bit", 3000, 4000)}},
		{Lines: []model.CueText{timedLine(model.SpeakerInterviewer, "a much longer closing question", 4000, 9000)}},
	}

	c := newTestCaptioner()
	merged, unmergeable := c.coalesce(cues)
	if unmergeable != 0 {
		t.Errorf("unmergeable = %d, want 0", unmergeable)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 cues after merge, got %d", len(merged))
	}
	// The 3s predecessor beats the 5s successor.
	if got := merged[0].Duration(); got != 4000 {
		t.Errorf("merged cue duration = %d, want 4000", got)
	}
	// Same-speaker lines collapse into one.
	if got := len(merged[0].Lines); got != 1 {
		t.Fatalf("merged cue has %d lines, want 1", got)
	}
	if got := merged[0].Lines[0].Text; got != "first part short bit" {
		t.Errorf("merged line text = %q", got)
	}
}

func TestCoalesceKeepsDistinctSpeakerLines(t *testing.T) {
	cues := []model.CaptionCue{
		{Lines: []model.CueText{timedLine(model.SpeakerInterviewer, "and then?", 0, 1000)}},
		{Lines: []model.CueText{timedLine(model.SpeakerSubject, "then we moved north", 1000, 4000)}},
	}

	c := newTestCaptioner()
	merged, _ := c.coalesce(cues)
	if len(merged) != 1 {
		t.Fatalf("expected 1 cue after merge, got %d", len(merged))
	}
	if got := len(merged[0].Lines); got != 2 {
		t.Errorf("merged cue has %d lines, want 2", got)
	}
}

func TestCoalesceUnmergeable(t *testing.T) {
	// A lone short cue has no neighbor to merge into.
	cues := []model.CaptionCue{
		{Lines: []model.CueText{timedLine(model.SpeakerSubject, "blip", 0, 500)}},
	}

	c := newTestCaptioner()
	merged, unmergeable := c.coalesce(cues)
	if len(merged) != 1 || unmergeable != 1 {
		t.Errorf("got %d cues, %d unmergeable; want 1 and 1", len(merged), unmergeable)
	}
}

func TestValidateCounts(t *testing.T) {
	long := strings.Repeat("x", 120)
	cues := []model.CaptionCue{
		{Lines: []model.CueText{timedLine(model.SpeakerSubject, "too quick", 0, 1000)}},
		{Lines: []model.CueText{timedLine(model.SpeakerSubject, long, 1000, 10500)}},
		{Lines: []model.CueText{timedLine(model.SpeakerSubject, "", 10500, 13000)}},
	}

	c := newTestCaptioner()
	v := c.validate(cues)
	if v.Cues != 3 || v.Lines != 3 {
		t.Errorf("counts = %d cues, %d lines; want 3 and 3", v.Cues, v.Lines)
	}
	if v.TooShort != 1 {
		t.Errorf("TooShort = %d, want 1", v.TooShort)
	}
	if v.TooLong != 1 {
		t.Errorf("TooLong = %d, want 1", v.TooLong)
	}
	if v.OverlongLines != 1 {
		t.Errorf("OverlongLines = %d, want 1", v.OverlongLines)
	}
	if v.EmptyText != 1 {
		t.Errorf("EmptyText = %d, want 1", v.EmptyText)
	}
	if v.Clean() {
		t.Error("validation should not be clean")
	}
}
