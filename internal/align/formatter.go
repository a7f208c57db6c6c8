package align

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/oralatlas/tessera/internal/model"
)

// Formatter repairs and interpolates raw forced-alignment output into
// caption-ready paragraphs. One Formatter is safe for concurrent use; each
// Format call is pure with respect to its inputs.
type Formatter struct {
	maxTrailingUnaligned int
}

// NewFormatter creates a formatter from alignment configuration
func NewFormatter(cfg model.AlignConfig) *Formatter {
	max := cfg.MaxTrailingUnaligned
	if max <= 0 {
		max = model.DefaultConfig().Align.MaxTrailingUnaligned
	}
	return &Formatter{maxTrailingUnaligned: max}
}

// Format converts raw word alignment for one segment into cleaned, fully
// timed paragraphs. The only unrecoverable failure is a word that cannot be
// relocated in its paragraph's cleaned text, which signals corruption between
// the transcript and the alignment source.
func (f *Formatter) Format(transcript string, raw []model.RawWord, durationMs int64) (*model.AlignmentResult, error) {
	if len(raw) == 0 {
		return noNarrationResult(transcript, durationMs), nil
	}

	words := toTimedWords(raw)
	repairAligned(words, durationMs)
	words, transcript = f.interpolateUnaligned(words, transcript, durationMs)

	paragraphs, err := segment(transcript, words)
	if err != nil {
		return nil, err
	}

	return &model.AlignmentResult{
		Transcript: transcript,
		DurationMs: durationMs,
		Paragraphs: paragraphs,
	}, nil
}

// noNarrationResult builds the single synthetic paragraph for a clip with
// no spoken words.
func noNarrationResult(transcript string, durationMs int64) *model.AlignmentResult {
	para := model.AlignedParagraph{
		SourceStart: 0,
		SourceEnd:   len(transcript),
		Text:        transcript,
		Words: []model.TimedText{{
			Text:      transcript,
			CharStart: 0,
			CharEnd:   len(transcript),
			TimeStart: 0,
			TimeEnd:   durationMs,
			Case:      model.CaseNoNarration,
		}},
	}
	return &model.AlignmentResult{
		Transcript: transcript,
		DurationMs: durationMs,
		Paragraphs: []model.AlignedParagraph{para},
	}
}

func toTimedWords(raw []model.RawWord) []model.TimedText {
	words := make([]model.TimedText, len(raw))
	for i, w := range raw {
		c := model.CaseUnaligned
		if w.Aligned {
			c = model.CaseAligned
		}
		words[i] = model.TimedText{
			Source:    w.Text,
			Text:      w.Text,
			CharStart: w.CharStart,
			CharEnd:   w.CharEnd,
			TimeStart: int64(math.Round(w.StartSec * 1000)),
			TimeEnd:   int64(math.Round(w.EndSec * 1000)),
			Case:      c,
		}
	}
	return words
}

// repairAligned fixes the three known aligner bugs on words the aligner
// itself marked successful: local time inversions, adjacent overlaps, and
// end times past the clip duration.
func repairAligned(words []model.TimedText, durationMs int64) {
	var idx []int
	for i := range words {
		if words[i].Case == model.CaseAligned {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return
	}

	// Monotonicity: overwrite each out-of-order word's times with the
	// time-sorted value at its position, without reordering the list.
	type span struct{ start, end int64 }
	sorted := make([]span, len(idx))
	for k, i := range idx {
		sorted[k] = span{words[i].TimeStart, words[i].TimeEnd}
	}
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].start < sorted[b].start })
	for k, i := range idx {
		if words[i].TimeStart != sorted[k].start {
			words[i].TimeStart = sorted[k].start
			words[i].TimeEnd = sorted[k].end
		}
	}

	// Overlap: swap the boundary values of each overlapping adjacent pair.
	for k := 0; k+1 < len(idx); k++ {
		a, b := &words[idx[k]], &words[idx[k+1]]
		if a.TimeEnd > b.TimeStart {
			a.TimeEnd, b.TimeStart = b.TimeStart, a.TimeEnd
		}
	}

	// Illegal end time: everything after the last in-bounds word is spread
	// evenly between that word's start and the clip duration. The words stay
	// tagged aligned; they were nominally aligned data.
	lastGood := -1
	for k := len(idx) - 1; k >= 0; k-- {
		if words[idx[k]].TimeEnd <= durationMs {
			lastGood = k
			break
		}
	}
	if lastGood == len(idx)-1 {
		return
	}
	base := int64(0)
	first := lastGood + 1
	if lastGood >= 0 {
		base = words[idx[lastGood]].TimeStart
		first = lastGood
	}
	slots := int64(len(idx) - first)
	step := (durationMs - base) / slots
	for j := int64(0); j < slots; j++ {
		w := &words[idx[first+int(j)]]
		w.TimeStart = base + step*j
		w.TimeEnd = base + step*(j+1)
	}
	words[idx[len(idx)-1]].TimeEnd = durationMs
}

// interpolateUnaligned walks the word list once, filling in timing for runs
// of unaligned words. A trailing run longer than the configured threshold is
// unrecoverable noise: those words are dropped and the transcript truncated
// at the run's start offset.
func (f *Formatter) interpolateUnaligned(words []model.TimedText, transcript string, durationMs int64) ([]model.TimedText, string) {
	i := 0
	for i < len(words) {
		if words[i].Case != model.CaseUnaligned {
			i++
			continue
		}
		j := i
		for j < len(words) && words[j].Case == model.CaseUnaligned {
			j++
		}

		lo := int64(0)
		if i > 0 {
			lo = words[i-1].TimeEnd
		}

		if j == len(words) {
			if j-i > f.maxTrailingUnaligned {
				cut := words[i].CharStart
				slog.Warn("dropping trailing unaligned run",
					"words", j-i, "cut_offset", cut)
				transcript = strings.TrimRight(transcript[:cut], " \t\n")
				return words[:i], transcript
			}
			fillRun(words[i:j], lo, durationMs)
			return words, transcript
		}

		fillRun(words[i:j], lo, words[j].TimeStart)
		i = j
	}
	return words, transcript
}

// fillRun distributes [lo, hi] evenly across the run and tags it interpolated
func fillRun(run []model.TimedText, lo, hi int64) {
	if hi < lo {
		hi = lo
	}
	step := (hi - lo) / int64(len(run))
	for k := range run {
		run[k].TimeStart = lo + step*int64(k)
		run[k].TimeEnd = lo + step*int64(k+1)
		run[k].Case = model.CaseInterpolated
	}
	run[len(run)-1].TimeEnd = hi
}

// segment splits the transcript into paragraphs on double newlines, assigns
// words to paragraphs by source offset with a single forward scan, and runs
// per-paragraph cleanup.
func segment(transcript string, words []model.TimedText) ([]model.AlignedParagraph, error) {
	var paragraphs []model.AlignedParagraph
	next := 0 // forward-only word pointer

	offset := 0
	for _, chunk := range strings.Split(transcript, "\n\n") {
		start := offset
		end := start + len(chunk)
		offset = end + 2

		first := next
		for next < len(words) && words[next].CharStart < end {
			next++
		}
		if next == first {
			continue
		}

		para, err := buildParagraph(chunk, start, end, words[first:next])
		if err != nil {
			return nil, err
		}
		if para != nil {
			paragraphs = append(paragraphs, *para)
		}
	}
	return paragraphs, nil
}

// buildParagraph cleans one paragraph's text, relocates its words against the
// cleaned text, and expands word boundaries to make spans contiguous.
func buildParagraph(text string, srcStart, srcEnd int, assigned []model.TimedText) (*model.AlignedParagraph, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		slog.Warn("paragraph empty after cleanup, dropping words",
			"source_start", srcStart, "words", len(assigned))
		return nil, nil
	}

	words := make([]model.TimedText, len(assigned))
	copy(words, assigned)

	if err := relocate(words, cleaned); err != nil {
		return nil, err
	}
	words = expandBoundaries(words, cleaned)

	return &model.AlignedParagraph{
		SourceStart: srcStart,
		SourceEnd:   srcEnd,
		Text:        cleaned,
		Words:       words,
	}, nil
}

var (
	spaceRunRe = regexp.MustCompile(`\s+`)
	prePunctRe = regexp.MustCompile(` +([.,!?;:])`)
)

// CleanText strips bracketed annotations, collapses whitespace, and removes
// space before terminal punctuation.
func CleanText(text string) string {
	var b strings.Builder
	depth := 0
	for _, r := range text {
		switch r {
		case '[', '(':
			depth++
		case ']', ')':
			if depth > 0 {
				depth--
				continue
			}
		}
		if depth == 0 {
			b.WriteRune(r)
		}
	}
	out := spaceRunRe.ReplaceAllString(b.String(), " ")
	out = prePunctRe.ReplaceAllString(out, "$1")
	return strings.TrimSpace(out)
}

// relocate finds each word's offsets in the cleaned text by linear forward
// search for the first unconsumed exact match. A miss is a data-integrity
// failure: the transcript and alignment source disagree.
func relocate(words []model.TimedText, cleaned string) error {
	from := 0
	for i := range words {
		ix := strings.Index(cleaned[from:], words[i].Text)
		if ix < 0 {
			return fmt.Errorf("%w: %q at or after offset %d", model.ErrWordRelocate, words[i].Text, from)
		}
		words[i].CharStart = from + ix
		words[i].CharEnd = words[i].CharStart + len(words[i].Text)
		from = words[i].CharEnd
	}
	return nil
}

// expandBoundaries absorbs a leading quote into its word, merges hyphen-joined
// pairs, and stretches every word's end to the next word's start so the word
// ranges partition the paragraph text exactly.
func expandBoundaries(words []model.TimedText, cleaned string) []model.TimedText {
	for i := range words {
		if words[i].CharStart > 0 && cleaned[words[i].CharStart-1] == '"' {
			if i == 0 || words[i-1].CharEnd <= words[i].CharStart-1 {
				words[i].CharStart--
				words[i].Text = cleaned[words[i].CharStart:words[i].CharEnd]
			}
		}
	}

	for i := 0; i+1 < len(words); {
		a, b := words[i], words[i+1]
		if a.CharEnd < len(cleaned) && cleaned[a.CharEnd] == '-' && b.CharStart == a.CharEnd+1 {
			words[i].CharEnd = b.CharEnd
			words[i].Text = cleaned[words[i].CharStart:words[i].CharEnd]
			words[i].TimeEnd = b.TimeEnd
			if b.Case == model.CaseInterpolated {
				words[i].Case = model.CaseInterpolated
			}
			words = append(words[:i+1], words[i+2:]...)
			continue
		}
		i++
	}

	words[0].CharStart = 0
	for i := 0; i+1 < len(words); i++ {
		words[i].CharEnd = words[i+1].CharStart
	}
	words[len(words)-1].CharEnd = len(cleaned)
	return words
}
