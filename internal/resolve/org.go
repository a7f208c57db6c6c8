package resolve

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/oralatlas/tessera/internal/model"
	"github.com/oralatlas/tessera/internal/refdata"
)

// OrganizationResolver resolves organization mentions to Library of Congress
// name authority identifiers using the synonym and authority tables.
type OrganizationResolver struct {
	tables *refdata.Tables
}

// NewOrganizationResolver creates a resolver over the given reference tables
func NewOrganizationResolver(tables *refdata.Tables) *OrganizationResolver {
	return &OrganizationResolver{tables: tables}
}

var (
	sicPrefixRe   = regexp.MustCompile(`(?i)^sic\.?\s+`)
	ucPatternRe   = regexp.MustCompile(`^UC\s+(.+)$`)
	teamPatternRe = regexp.MustCompile(`^(.+?)\s*\((.+?)\s+team\)$`)

	universityOfRe = regexp.MustCompile(`University of [A-Z][A-Za-z,. ]*[A-Za-z]`)
	universityRe   = regexp.MustCompile(`[A-Z][A-Za-z&. ]*? University`)
	collegeRe      = regexp.MustCompile(`[A-Z][A-Za-z&. ]*? College`)
)

// Resolve resolves one story's organization candidates. If the same raw text
// resolves to two different authority IDs the story is internally
// inconsistent: one conflict error is logged and resolution is abandoned,
// returning an empty resolved list. Better reported empty than silently
// wrong.
func (r *OrganizationResolver) Resolve(candidates []model.NamedEntity) ([]model.OrganizationEntity, []model.NamedEntity, error) {
	working := make([]model.OrganizationEntity, len(candidates))
	for i, c := range candidates {
		working[i] = model.OrganizationEntity{NamedEntity: c}
	}

	for i := range working {
		r.resolveOne(&working[i])
	}

	if err := r.checkConsistency(working); err != nil {
		unresolved := make([]model.NamedEntity, len(candidates))
		copy(unresolved, candidates)
		return nil, unresolved, err
	}

	r.propagate(working)
	resolved, unresolved := r.aggregate(working)
	return resolved, unresolved, nil
}

// resolveOne tries the lookup stages in order: direct lookup with
// normalization fallbacks, bracket/paren context splits, then
// college-pattern parsing.
func (r *OrganizationResolver) resolveOne(cand *model.OrganizationEntity) {
	if id, ok := r.lookupVariants(cand.Text); ok {
		cand.AuthorityID = id
		cand.Confidence += 2
		return
	}

	ctx := strings.TrimSpace(cand.ContextText)
	if ctx == "" || ctx == strings.TrimSpace(cand.Text) {
		return
	}

	for _, part := range contextSplits(ctx) {
		if id, ok := r.lookupVariants(part); ok {
			cand.AuthorityID = id
			cand.Confidence++
			return
		}
	}

	if id, ok := r.lookupCollege(ctx); ok {
		cand.AuthorityID = id
		cand.Confidence++
	}
}

// contextSplits breaks "name [context]" and "name (context)" forms into
// independent lookup candidates, prefix and suffix both.
func contextSplits(ctx string) []string {
	var parts []string
	for _, pair := range [][2]string{{"[", "]"}, {"(", ")"}} {
		open := strings.Index(ctx, pair[0])
		if open < 0 {
			continue
		}
		end := strings.LastIndex(ctx, pair[1])
		if end <= open {
			end = len(ctx)
		}
		prefix := strings.TrimSpace(ctx[:open])
		suffix := strings.TrimSpace(ctx[open+1 : end])
		if prefix != "" {
			parts = append(parts, prefix)
		}
		if suffix != "" {
			parts = append(parts, suffix)
		}
	}
	return parts
}

// lookupCollege detects "University of X" / "X University" / "X College"
// inside the context and attempts lookup of the reconstructed name.
func (r *OrganizationResolver) lookupCollege(ctx string) (string, bool) {
	for _, re := range []*regexp.Regexp{universityOfRe, universityRe, collegeRe} {
		if m := re.FindString(ctx); m != "" {
			if id, ok := r.lookupVariants(m); ok {
				return id, true
			}
		}
	}
	return "", false
}

// lookupVariants tries the cleaned name and its normalization variants
// against the synonym table, then the authority table.
func (r *OrganizationResolver) lookupVariants(name string) (string, bool) {
	for _, v := range variants(cleanName(name)) {
		if syn, ok := r.tables.OrgSynonym(v); ok {
			return syn.AuthorityID, true
		}
		if id, ok := r.tables.OrgAuthority(v); ok {
			return id, true
		}
	}
	return "", false
}

// cleanName strips bracket characters, pads ampersands, trims trailing
// punctuation, and removes a leading transcriber "sic" marker.
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	name = sicPrefixRe.ReplaceAllString(name, "")
	name = strings.NewReplacer("[", "", "]", "").Replace(name)
	name = strings.ReplaceAll(name, "&", " & ")
	name = strings.Join(strings.Fields(name), " ")
	name = strings.TrimRight(name, ".,;:")
	return strings.TrimSpace(name)
}

// variants generates the normalization fallbacks for one cleaned name
func variants(name string) []string {
	if name == "" {
		return nil
	}
	out := []string{name}

	if rest, ok := strings.CutPrefix(name, "The "); ok {
		out = append(out, rest)
	} else if rest, ok := strings.CutPrefix(name, "the "); ok {
		out = append(out, rest)
	}
	if rest, ok := strings.CutPrefix(name, "later "); ok {
		out = append(out, rest)
	}
	if strings.Contains(name, "U.S.") {
		out = append(out, strings.ReplaceAll(name, "U.S.", "United States"))
	}
	if strings.Contains(name, "United States") {
		out = append(out, strings.ReplaceAll(name, "United States", "U.S."))
	}
	if m := ucPatternRe.FindStringSubmatch(name); m != nil {
		out = append(out, "University of California, "+m[1])
	}
	if m := teamPatternRe.FindStringSubmatch(name); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// checkConsistency detects the same raw text resolving to two different
// non-empty authority IDs within one story
func (r *OrganizationResolver) checkConsistency(working []model.OrganizationEntity) error {
	byText := make(map[string]string)
	for i := range working {
		if working[i].AuthorityID == "" {
			continue
		}
		key := strings.ToLower(working[i].Text)
		if prev, seen := byText[key]; seen && prev != working[i].AuthorityID {
			slog.Error("conflicting organization resolutions, abandoning story",
				"text", working[i].Text, "id_a", prev, "id_b", working[i].AuthorityID)
			return fmt.Errorf("%w: %q -> %s vs %s",
				model.ErrResolutionConflict, working[i].Text, prev, working[i].AuthorityID)
		}
		byText[key] = working[i].AuthorityID
	}
	return nil
}

// propagate copies a resolved ID to all same-text candidates lacking one
func (r *OrganizationResolver) propagate(working []model.OrganizationEntity) {
	byText := make(map[string]model.OrganizationEntity)
	for i := range working {
		if working[i].AuthorityID != "" {
			key := strings.ToLower(working[i].Text)
			if _, seen := byText[key]; !seen {
				byText[key] = working[i]
			}
		}
	}
	for i := range working {
		if working[i].AuthorityID != "" {
			continue
		}
		if src, ok := byText[strings.ToLower(working[i].Text)]; ok {
			working[i].AuthorityID = src.AuthorityID
			working[i].Confidence = src.Confidence
		}
	}
}

// aggregate deduplicates by authority ID, keeping the maximum confidence and
// an occurrence count. Organizations mentioned at least twice get one extra
// confidence point.
func (r *OrganizationResolver) aggregate(working []model.OrganizationEntity) ([]model.OrganizationEntity, []model.NamedEntity) {
	index := make(map[string]int)
	var resolved []model.OrganizationEntity
	var unresolved []model.NamedEntity

	for _, e := range working {
		if !e.Resolved() {
			unresolved = append(unresolved, e.NamedEntity)
			continue
		}
		if at, seen := index[e.AuthorityID]; seen {
			resolved[at].Occurrences++
			if e.Confidence > resolved[at].Confidence {
				resolved[at].Confidence = e.Confidence
			}
			continue
		}
		e.Occurrences = 1
		index[e.AuthorityID] = len(resolved)
		resolved = append(resolved, e)
	}

	for i := range resolved {
		if resolved[i].Occurrences >= 2 {
			resolved[i].Confidence++
		}
	}

	slog.Debug("organization resolution complete",
		"resolved", len(resolved), "unresolved", len(unresolved))
	return resolved, unresolved
}
