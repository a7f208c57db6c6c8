package polish

import (
	"errors"
	"strings"
	"testing"

	"github.com/oralatlas/tessera/internal/model"
)

func TestParseTokens(t *testing.T) {
	input := "John\tPERSON\n\nMemphis LOCATION\n.\tO\n"
	tokens, err := ParseTokens(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTokens() error = %v", err)
	}
	want := []Token{
		{Text: "John", Tag: "PERSON"},
		{Text: "Memphis", Tag: "LOCATION"},
		{Text: ".", Tag: "O"},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, tokens[i], want[i])
		}
	}
}

func toks(pairs ...string) []Token {
	var tokens []Token
	for _, p := range pairs {
		text, tag, _ := strings.Cut(p, "/")
		tokens = append(tokens, Token{Text: text, Tag: tag})
	}
	return tokens
}

func TestPolishAdjacentSameTypeTokens(t *testing.T) {
	transcript := "I met John Smith in Memphis."
	tokens := toks("I/O", "met/O", "John/PERSON", "Smith/PERSON", "in/O", "Memphis/LOCATION", "./O")

	p := NewPolisher(true)
	out, err := p.Polish(tokens, transcript)
	if err != nil {
		t.Fatalf("Polish() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d entities, want 2", len(out))
	}
	if out[0].Text != "John Smith" || out[0].Type != model.EntityPerson || out[0].Offset != 6 {
		t.Errorf("first entity = %+v", out[0])
	}
	if out[1].Text != "Memphis" || out[1].Type != model.EntityLocation || out[1].Offset != 20 {
		t.Errorf("second entity = %+v", out[1])
	}
}

func TestPolishCommaSplitsEntities(t *testing.T) {
	transcript := "Memphis, Nashville"
	tokens := toks("Memphis/LOCATION", ",/O", "Nashville/LOCATION")

	p := NewPolisher(true)
	out, err := p.Polish(tokens, transcript)
	if err != nil {
		t.Fatalf("Polish() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d entities, want 2", len(out))
	}
	if out[0].Text != "Memphis" || out[1].Text != "Nashville" {
		t.Errorf("entities = %q, %q", out[0].Text, out[1].Text)
	}
}

func TestPolishTypeChangeStartsNewEntity(t *testing.T) {
	transcript := "John Memphis"
	tokens := toks("John/PERSON", "Memphis/LOCATION")

	p := NewPolisher(true)
	out, err := p.Polish(tokens, transcript)
	if err != nil {
		t.Fatalf("Polish() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d entities, want 2", len(out))
	}
	if out[0].Type != model.EntityPerson || out[1].Type != model.EntityLocation {
		t.Errorf("types = %s, %s", out[0].Type, out[1].Type)
	}
}

func TestPolishBracketContext(t *testing.T) {
	transcript := "He joined the TVA [Tennessee Valley Authority] in 1936."
	tokens := toks(
		"He/O", "joined/O", "the/O",
		"TVA/ORGANIZATION",
		"[/O", "Tennessee/ORGANIZATION", "Valley/ORGANIZATION", "Authority/ORGANIZATION", "]/O",
		"in/O", "1936/YEAR", "./O",
	)

	p := NewPolisher(true)
	out, err := p.Polish(tokens, transcript)
	if err != nil {
		t.Fatalf("Polish() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d entities, want 2", len(out))
	}
	if out[0].Text != "TVA" || out[0].Offset != 14 {
		t.Errorf("entity = %+v, want TVA at 14", out[0])
	}
	if out[0].ContextText != "TVA [Tennessee Valley Authority]" {
		t.Errorf("context = %q", out[0].ContextText)
	}
	if out[1].Text != "1936" || out[1].Type != model.EntityYear {
		t.Errorf("second entity = %+v", out[1])
	}
}

func TestPolishLeadingBracketRetroactiveType(t *testing.T) {
	transcript := "near [Cairo Illinois] that year"
	tokens := toks("near/O", "[/O", "Cairo/LOCATION", "Illinois/LOCATION", "]/O", "that/O", "year/O")

	p := NewPolisher(true)
	out, err := p.Polish(tokens, transcript)
	if err != nil {
		t.Fatalf("Polish() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d entities, want 1", len(out))
	}
	if out[0].Type != model.EntityLocation || out[0].Text != "Cairo" {
		t.Errorf("entity = %+v", out[0])
	}
	if out[0].ContextText != "[Cairo Illinois]" {
		t.Errorf("context = %q", out[0].ContextText)
	}
}

func TestPolishEscapeTokens(t *testing.T) {
	transcript := "We lived (then) in Cairo."
	tokens := toks("We/O", "lived/O", "-LRB-/O", "then/O", "-RRB-/O", "in/O", "Cairo/LOCATION", "./O")

	p := NewPolisher(true)
	out, err := p.Polish(tokens, transcript)
	if err != nil {
		t.Fatalf("Polish() error = %v", err)
	}
	if len(out) != 1 || out[0].Text != "Cairo" {
		t.Errorf("entities = %v, want just Cairo", out)
	}
}

func TestPolishSkipsDuplicatedPunctuation(t *testing.T) {
	transcript := "Memphis. Nashville"
	tokens := toks("Memphis/LOCATION", "./O", "./O", "Nashville/LOCATION")

	p := NewPolisher(true)
	out, err := p.Polish(tokens, transcript)
	if err != nil {
		t.Fatalf("Polish() error = %v", err)
	}
	if len(out) != 2 {
		t.Errorf("got %d entities, want 2", len(out))
	}
}

func TestPolishParagraphBreakTerminates(t *testing.T) {
	transcript := "Memphis\n\nNashville"
	tokens := toks("Memphis/LOCATION", "Nashville/LOCATION")

	p := NewPolisher(true)
	out, err := p.Polish(tokens, transcript)
	if err != nil {
		t.Fatalf("Polish() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d entities, want 2 (break must split them)", len(out))
	}
	if out[0].Text != "Memphis" || out[1].Text != "Nashville" {
		t.Errorf("entities = %q, %q", out[0].Text, out[1].Text)
	}
}

func TestPolishDesyncFails(t *testing.T) {
	transcript := "a short transcript"
	tokens := toks("zebra/LOCATION")

	p := NewPolisher(true)
	out, err := p.Polish(tokens, transcript)
	if !errors.Is(err, model.ErrTokenDesync) {
		t.Fatalf("error = %v, want ErrTokenDesync", err)
	}
	if out != nil {
		t.Errorf("expected no candidates on desync, got %v", out)
	}
}
