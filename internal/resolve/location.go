// Package resolve maps heuristically-extracted named-entity mentions to
// canonical authority identifiers: USGS gazetteer codes for domestic
// locations and Library of Congress authority IDs for organizations.
// Resolvers hold only immutable reference tables, so resolving many stories
// concurrently is safe.
package resolve

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/oralatlas/tessera/internal/model"
	"github.com/oralatlas/tessera/internal/refdata"
)

// LocationResolver resolves location mentions against the US gazetteer.
// Only US resolution is supported; that is a scope limit of the reference
// data, not of the pipeline.
type LocationResolver struct {
	tables          *refdata.Tables
	adjacencyWindow int
}

// NewLocationResolver creates a resolver over the given reference tables
func NewLocationResolver(tables *refdata.Tables, cfg model.ResolveConfig) *LocationResolver {
	window := cfg.AdjacencyWindow
	if window <= 0 {
		window = model.DefaultConfig().Resolve.AdjacencyWindow
	}
	return &LocationResolver{tables: tables, adjacencyWindow: window}
}

// landmarkSuffixes are generic trailing words that make a mention a street
// or natural feature rather than a settlement. "Wyoming Avenue" must not
// resolve to the state of Wyoming.
var landmarkSuffixes = map[string]bool{
	"street":    true,
	"avenue":    true,
	"boulevard": true,
	"road":      true,
	"drive":     true,
	"lane":      true,
	"lake":      true,
	"river":     true,
	"creek":     true,
}

// washingtonStateMarkers are contextual substrings that pin an ambiguous
// "Washington" mention to the state rather than the District of Columbia.
var washingtonStateMarkers = []string{
	"seattle", "tacoma", "spokane", "olympia", "bellingham",
	"yakima", "puget", "king county", "pierce county",
}

// candidate resolution carried through the heuristic cascade
type locResolution struct {
	stateCode int
	placeCode int
	boost     int
}

// Resolve runs the heuristic cascade over one story's candidates and returns
// aggregated resolved entities plus the candidates that stayed unresolved.
func (r *LocationResolver) Resolve(candidates []model.NamedEntity) ([]model.LocationEntity, []model.NamedEntity) {
	working := make([]model.LocationEntity, len(candidates))
	for i, c := range candidates {
		working[i] = model.LocationEntity{NamedEntity: c, CountryCode: model.CountryUS}
	}

	for i := range working {
		if working[i].Resolved() {
			continue // settled by a previous adjacency join
		}
		r.resolveOne(working, i)
	}

	r.propagate(working)
	return r.aggregate(working)
}

// resolveOne applies the heuristics in strict priority order until one
// resolves the candidate.
func (r *LocationResolver) resolveOne(working []model.LocationEntity, i int) {
	cand := &working[i]
	raw := strings.TrimSpace(cand.Text)

	// 1. Generic landmark suffixes are rejected outright unless the mention
	// carries its own distinguishing structure.
	if looksLikeLandmark(raw) && !strings.ContainsAny(raw, ",[") {
		return
	}

	// 2. Explicit Place/State structure in the raw text.
	if res, ok := r.parsePlaceState(raw, cand.ContextText); ok {
		apply(cand, res)
		return
	}

	// 3. Same parse against the contextual text, then against the text
	// immediately following the mention inside the context.
	if ctx := strings.TrimSpace(cand.ContextText); ctx != "" && ctx != raw {
		if res, ok := r.parsePlaceState(ctx, ctx); ok {
			apply(cand, res)
			return
		}
		if idx := strings.Index(ctx, raw); idx >= 0 {
			after := strings.TrimSpace(ctx[idx+len(raw):])
			if after != "" {
				if res, ok := r.parsePlaceState(after, ctx); ok {
					apply(cand, res)
					return
				}
			}
		}
	}

	// 4. Adjacent candidate that is itself a bare state: handles split
	// extraction like "Cairo" + "Illinois" as two mentions.
	if i+1 < len(working) {
		next := &working[i+1]
		if next.Offset <= cand.End()+r.adjacencyWindow {
			if state, ok := r.bareState(next.Text, next.ContextText); ok {
				if place, found := r.tables.PlaceInState(state.Code, raw); found {
					apply(cand, locResolution{stateCode: state.Code, placeCode: place, boost: 2})
					apply(next, locResolution{stateCode: state.Code, boost: 1})
					return
				}
			}
		}
	}

	// 5. Last resort: curated city hint, then the raw text as a state name.
	if hint, ok := r.tables.CityHint(raw); ok {
		apply(cand, locResolution{stateCode: hint.StateCode, placeCode: hint.PlaceCode, boost: 2})
		return
	}
	if state, ok := r.bareState(raw, cand.ContextText); ok {
		apply(cand, locResolution{stateCode: state.Code, boost: 1})
	}
}

func apply(e *model.LocationEntity, res locResolution) {
	e.StateCode = res.stateCode
	e.PlaceCode = res.placeCode
	e.Confidence += res.boost
}

func looksLikeLandmark(text string) bool {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) < 2 {
		return false
	}
	return landmarkSuffixes[tokens[len(tokens)-1]]
}

var bracketPairRe = regexp.MustCompile(`^(.*?)\s*\[([^\[\]]+)\]`)
var nestedBracketRe = regexp.MustCompile(`^(.*?)\s*\[([^\[\]]+)\[([^\[\]]+)\]`)

// parsePlaceState parses an explicit "Place, State" or "Place [State]"
// structure, trying the place table first, then a nested bracket pattern,
// then the bare state.
func (r *LocationResolver) parsePlaceState(text, context string) (locResolution, bool) {
	var place, statePart string

	if idx := strings.LastIndex(text, ","); idx > 0 {
		place = strings.TrimSpace(text[:idx])
		statePart = strings.TrimSpace(text[idx+1:])
	} else if m := bracketPairRe.FindStringSubmatch(text); m != nil {
		place = strings.TrimSpace(m[1])
		statePart = strings.TrimSpace(m[2])
	} else {
		return locResolution{}, false
	}

	state, ok := r.tables.StateByName(statePart)
	if !ok {
		// Nested form: "Place [City [State]]".
		if m := nestedBracketRe.FindStringSubmatch(text); m != nil {
			if inner, innerOK := r.tables.StateByName(strings.TrimSpace(m[3])); innerOK {
				city := strings.TrimSpace(m[2])
				if code, found := r.tables.PlaceInState(inner.Code, city); found {
					return locResolution{stateCode: inner.Code, placeCode: code, boost: 2}, true
				}
				return locResolution{stateCode: inner.Code, boost: 1}, true
			}
		}
		return locResolution{}, false
	}

	stateCode, stateOK := r.checkWashington(state, context)
	if !stateOK {
		return locResolution{}, false
	}
	if code, found := r.tables.PlaceInState(stateCode, place); found {
		return locResolution{stateCode: stateCode, placeCode: code, boost: 2}, true
	}
	return locResolution{stateCode: stateCode, boost: 1}, true
}

// bareState matches the whole text against a state name
func (r *LocationResolver) bareState(text, context string) (refdata.State, bool) {
	state, ok := r.tables.StateByName(text)
	if !ok {
		return refdata.State{}, false
	}
	code, ok := r.checkWashington(state, context)
	if !ok {
		return refdata.State{}, false
	}
	state.Code = code
	return state, true
}

// checkWashington disambiguates the one ambiguous state entry. A "D.C."
// mention in the context means the District; a Washington-state city or
// county means the state; with no signal either way the resolution is
// abandoned rather than guessed.
func (r *LocationResolver) checkWashington(state refdata.State, context string) (int, bool) {
	if state.Code != refdata.StateCodeWashington {
		return state.Code, true
	}
	lower := strings.ToLower(context)
	if strings.Contains(lower, "d.c.") || strings.Contains(lower, "district of columbia") {
		return refdata.StateCodeDC, true
	}
	for _, marker := range washingtonStateMarkers {
		if strings.Contains(lower, marker) {
			return refdata.StateCodeWashington, true
		}
	}
	return 0, false
}

// propagate is the second global pass: an unresolved candidate whose exact
// text matches a resolved one in the same story inherits that resolution.
func (r *LocationResolver) propagate(working []model.LocationEntity) {
	byText := make(map[string]locResolution)
	for i := range working {
		if working[i].Resolved() {
			key := strings.ToLower(working[i].Text)
			if _, seen := byText[key]; !seen {
				byText[key] = locResolution{
					stateCode: working[i].StateCode,
					placeCode: working[i].PlaceCode,
					boost:     working[i].Confidence,
				}
			}
		}
	}
	for i := range working {
		if working[i].Resolved() {
			continue
		}
		if res, ok := byText[strings.ToLower(working[i].Text)]; ok {
			working[i].StateCode = res.stateCode
			working[i].PlaceCode = res.placeCode
			working[i].Confidence = res.boost
		}
	}
}

// aggregate deduplicates resolved entities by state and place code, keeping
// the maximum confidence seen and an occurrence count. Places mentioned more
// than three times get one extra confidence point.
func (r *LocationResolver) aggregate(working []model.LocationEntity) ([]model.LocationEntity, []model.NamedEntity) {
	type key struct{ state, place int }
	index := make(map[key]int)
	var resolved []model.LocationEntity
	var unresolved []model.NamedEntity

	for _, e := range working {
		if !e.Resolved() {
			unresolved = append(unresolved, e.NamedEntity)
			continue
		}
		k := key{e.StateCode, e.PlaceCode}
		if at, seen := index[k]; seen {
			resolved[at].Occurrences++
			if e.Confidence > resolved[at].Confidence {
				resolved[at].Confidence = e.Confidence
			}
			continue
		}
		e.Occurrences = 1
		index[k] = len(resolved)
		resolved = append(resolved, e)
	}

	for i := range resolved {
		if resolved[i].Occurrences > 3 {
			resolved[i].Confidence++
		}
	}

	slog.Debug("location resolution complete",
		"resolved", len(resolved), "unresolved", len(unresolved))
	return resolved, unresolved
}
