// Package polish reconstructs named-entity candidates, with transcript
// offsets, from the token-per-line output of the external Stanford NER
// classifier. The tool's tokenization does not match the source transcript
// exactly, so the polisher walks both in lockstep with a forward-only scan
// offset and fails hard when they desynchronize.
package polish

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/oralatlas/tessera/internal/model"
)

// Token is one tagged token from the NER tool's output
type Token struct {
	Text string
	Tag  string // entity type or "O"
}

// Polisher turns a tagged token stream plus the source transcript into
// entity candidates
type Polisher struct {
	bracketHinting bool
}

// NewPolisher creates a polisher. With bracket hinting enabled, an opening
// square bracket starts a candidate and everything inside the bracketed
// span is folded into the candidate's contextual text.
func NewPolisher(bracketHinting bool) *Polisher {
	return &Polisher{bracketHinting: bracketHinting}
}

// escapes maps the tool's placeholder tokens back to literal characters
var escapes = map[string]string{
	"-LRB-": "(",
	"-RRB-": ")",
	"-LSB-": "[",
	"-RSB-": "]",
	"-LCB-": "{",
	"-RCB-": "}",
}

// tagTypes maps classifier tags to entity types
var tagTypes = map[string]model.EntityType{
	"PERSON":       model.EntityPerson,
	"LOCATION":     model.EntityLocation,
	"ORGANIZATION": model.EntityOrganization,
	"YEAR":         model.EntityYear,
	"MISC":         model.EntityMisc,
}

// ParseTokens reads a token-per-line stream of "text<TAB>TAG" rows
func ParseTokens(r io.Reader) ([]Token, error) {
	var tokens []Token
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		text, tag, found := strings.Cut(line, "\t")
		if !found {
			text, tag, _ = strings.Cut(line, " ")
		}
		tokens = append(tokens, Token{Text: strings.TrimSpace(text), Tag: strings.TrimSpace(tag)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read token stream: %w", err)
	}
	return tokens, nil
}

// pending is the candidate being accumulated
type pending struct {
	active   bool
	typ      model.EntityType
	rawStart int // typed-token span; -1 until a typed token is seen
	rawEnd   int
	ctxStart int // includes bracket-folded text
	ctxEnd   int
	depth    int // bracket nesting
}

// Polish reconstructs entity candidates from the token stream. It fails,
// returning no candidates, when a token cannot be located in the transcript
// at or after the current scan offset.
func (p *Polisher) Polish(tokens []Token, transcript string) ([]model.NamedEntity, error) {
	var (
		out    []model.NamedEntity
		cand   pending
		offset int
	)

	finalize := func() {
		if cand.active && cand.rawStart >= 0 && cand.typ != "" {
			raw := transcript[cand.rawStart:cand.rawEnd]
			ctxStart, ctxEnd := cand.ctxStart, cand.ctxEnd
			if cand.rawStart < ctxStart {
				ctxStart = cand.rawStart
			}
			if cand.rawEnd > ctxEnd {
				ctxEnd = cand.rawEnd
			}
			e := model.NamedEntity{
				Text:   raw,
				Offset: cand.rawStart,
				Length: len(raw),
				Type:   cand.typ,
				Source: "stanford",
			}
			if ctx := transcript[ctxStart:ctxEnd]; ctx != raw {
				e.ContextText = ctx
			}
			out = append(out, e)
		}
		cand = pending{}
	}

	for _, tok := range tokens {
		text := tok.Text
		if lit, ok := escapes[text]; ok {
			text = lit
		}
		if text == "" {
			continue
		}

		start, end, found := locate(transcript, offset, text)
		if !found {
			if zeroWidth(text) {
				continue // duplicated punctuation artifact from the tokenizer
			}
			finalize()
			return nil, fmt.Errorf("%w: token %q at offset %d", model.ErrTokenDesync, text, offset)
		}

		// A hard paragraph break always terminates the current candidate,
		// even mid-bracket.
		if cand.active && strings.Contains(transcript[offset:start], "\n\n") {
			finalize()
		}

		typ, typed := tagTypes[tok.Tag]

		switch {
		case p.bracketHinting && text == "[":
			if cand.active {
				cand.depth++
				cand.ctxEnd = end
			} else {
				cand = pending{active: true, rawStart: -1, ctxStart: start, ctxEnd: end, depth: 1}
			}

		case p.bracketHinting && text == "]" && cand.active && cand.depth > 0:
			cand.depth--
			cand.ctxEnd = end

		case cand.active && cand.depth > 0:
			// Inside a bracketed span everything folds into the context,
			// regardless of its own tag. The first typed token after a
			// leading bracket retroactively decides the type.
			if typed && cand.rawStart < 0 {
				cand.typ = typ
				cand.rawStart = start
				cand.rawEnd = end
			}
			cand.ctxEnd = end

		case typed:
			switch {
			case !cand.active:
				cand = pending{active: true, typ: typ, rawStart: start, rawEnd: end, ctxStart: start, ctxEnd: end}
			case cand.rawStart < 0:
				cand.typ = typ
				cand.rawStart = start
				cand.rawEnd = end
				cand.ctxEnd = end
			case cand.typ == typ:
				cand.rawEnd = end
				if end > cand.ctxEnd {
					cand.ctxEnd = end
				}
			default:
				finalize()
				cand = pending{active: true, typ: typ, rawStart: start, rawEnd: end, ctxStart: start, ctxEnd: end}
			}

		default:
			// Untagged token outside any bracket. Punctuation other than
			// comma is neutral; anything else closes the candidate. Comma is
			// significant: it splits entity lists.
			if cand.active && !neutralPunct(text) {
				finalize()
			}
		}

		offset = end
	}

	finalize()
	return out, nil
}

// locate finds the token in the transcript at or after the scan offset.
// Zero-width punctuation is only consumed when it sits immediately at the
// scan position; searching ahead for it would mask duplication artifacts.
func locate(transcript string, offset int, text string) (int, int, bool) {
	rest := transcript[offset:]
	if zeroWidth(text) {
		trimmed := strings.TrimLeft(rest, " \t\n")
		if strings.HasPrefix(trimmed, text) {
			start := offset + (len(rest) - len(trimmed))
			return start, start + len(text), true
		}
		return 0, 0, false
	}
	ix := strings.Index(rest, text)
	if ix < 0 {
		return 0, 0, false
	}
	return offset + ix, offset + ix + len(text), true
}

// zeroWidth reports whether the token is punctuation the tokenizer is known
// to duplicate. Comma is excluded: it is relied upon to split entity lists.
func zeroWidth(text string) bool {
	if text == "," {
		return false
	}
	for _, r := range text {
		if !strings.ContainsRune(`.!?;:'"-`+"`", r) {
			return false
		}
	}
	return true
}

// neutralPunct reports whether an untagged token neither extends nor closes
// a candidate
func neutralPunct(text string) bool {
	return text != "," && zeroWidth(text)
}
