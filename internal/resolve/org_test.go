package resolve

import (
	"errors"
	"testing"

	"github.com/oralatlas/tessera/internal/model"
	"github.com/oralatlas/tessera/internal/refdata"
)

func orgTables() *refdata.Tables {
	t := refdata.NewTables()
	t.AddOrg("Tennessee Valley Authority", "n79066751")
	t.AddOrg("Fisk University", "n50063319")
	t.AddOrg("Tuskegee Institute", "n79049242")
	t.AddOrg("Hampton Institute", "n79021546")
	t.AddOrg("University of California, Berkeley", "n79058363")
	t.AddOrg("Electric Boat", "n82127705")
	t.AddOrgSynonym("TVA", "Tennessee Valley Authority", "n79066751")
	return t
}

func org(text, context string) model.NamedEntity {
	return model.NamedEntity{
		Text:        text,
		ContextText: context,
		Length:      len(text),
		Type:        model.EntityOrganization,
		Source:      "stanford",
	}
}

func TestOrgResolveDirectAndVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		id   string
	}{
		{"direct", "Tennessee Valley Authority", "n79066751"},
		{"synonym", "TVA", "n79066751"},
		{"the prefix", "The Tennessee Valley Authority", "n79066751"},
		{"sic marker", "sic Tennessee Valley Authority.", "n79066751"},
		{"trailing punctuation", "Fisk University,", "n50063319"},
		{"uc pattern", "UC Berkeley", "n79058363"},
		{"team pattern", "Electric Boat (design team)", "n82127705"},
	}
	r := NewOrganizationResolver(orgTables())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, unresolved, err := r.Resolve([]model.NamedEntity{org(tt.text, "")})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if len(resolved) != 1 {
				t.Fatalf("expected resolution, got unresolved %v", unresolved)
			}
			if resolved[0].AuthorityID != tt.id {
				t.Errorf("authority = %s, want %s", resolved[0].AuthorityID, tt.id)
			}
			if resolved[0].Confidence != 2 {
				t.Errorf("confidence = %d, want 2", resolved[0].Confidence)
			}
		})
	}
}

func TestOrgResolveContextSplit(t *testing.T) {
	r := NewOrganizationResolver(orgTables())
	cand := org("the Authority", "the Authority [Tennessee Valley Authority]")

	resolved, _, err := r.Resolve([]model.NamedEntity{cand})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(resolved) != 1 {
		t.Fatal("expected context-split resolution")
	}
	if resolved[0].AuthorityID != "n79066751" {
		t.Errorf("authority = %s, want n79066751", resolved[0].AuthorityID)
	}
	if resolved[0].Confidence != 1 {
		t.Errorf("context resolution confidence = %d, want 1", resolved[0].Confidence)
	}
}

func TestOrgResolveCollegePattern(t *testing.T) {
	r := NewOrganizationResolver(orgTables())
	cand := org("Fisk", "Fisk University in Nashville")

	resolved, _, err := r.Resolve([]model.NamedEntity{cand})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(resolved) != 1 {
		t.Fatal("expected college-pattern resolution")
	}
	if resolved[0].AuthorityID != "n50063319" {
		t.Errorf("authority = %s, want n50063319", resolved[0].AuthorityID)
	}
}

func TestOrgResolveUnresolved(t *testing.T) {
	r := NewOrganizationResolver(orgTables())
	resolved, unresolved, err := r.Resolve([]model.NamedEntity{
		org("the plant", "the plant down the road"),
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(resolved) != 0 || len(unresolved) != 1 {
		t.Errorf("got %d resolved, %d unresolved; want 0 and 1", len(resolved), len(unresolved))
	}
}

func TestOrgResolveConflictAbortsStory(t *testing.T) {
	r := NewOrganizationResolver(orgTables())
	candidates := []model.NamedEntity{
		org("the Institute", "the Institute [Tuskegee Institute]"),
		org("the Institute", "the Institute [Hampton Institute]"),
		org("TVA", ""),
	}

	resolved, unresolved, err := r.Resolve(candidates)
	if !errors.Is(err, model.ErrResolutionConflict) {
		t.Fatalf("error = %v, want ErrResolutionConflict", err)
	}
	if len(resolved) != 0 {
		t.Errorf("aborted story returned %d resolved entities, want 0", len(resolved))
	}
	if len(unresolved) != len(candidates) {
		t.Errorf("unresolved = %d, want all %d candidates", len(unresolved), len(candidates))
	}
}

func TestOrgResolveAggregation(t *testing.T) {
	r := NewOrganizationResolver(orgTables())
	candidates := []model.NamedEntity{
		org("TVA", ""),
		org("Tennessee Valley Authority", ""),
	}

	resolved, _, err := r.Resolve(candidates)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected 1 aggregated entity, got %d", len(resolved))
	}
	if resolved[0].Occurrences != 2 {
		t.Errorf("occurrences = %d, want 2", resolved[0].Occurrences)
	}
	// Base confidence 2, plus 1 for repeat mentions.
	if resolved[0].Confidence != 3 {
		t.Errorf("confidence = %d, want 3", resolved[0].Confidence)
	}
}

func TestOrgPropagation(t *testing.T) {
	r := NewOrganizationResolver(orgTables())
	candidates := []model.NamedEntity{
		org("the Authority", "the Authority [Tennessee Valley Authority]"),
		org("the Authority", ""),
	}

	resolved, unresolved, err := r.Resolve(candidates)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(unresolved) != 0 {
		t.Fatalf("expected propagation, got unresolved %v", unresolved)
	}
	if len(resolved) != 1 || resolved[0].Occurrences != 2 {
		t.Errorf("resolved = %v, want 1 entity with 2 occurrences", resolved)
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  The WPA. ", "The WPA"},
		{"sic Farm Bureau", "Farm Bureau"},
		{"[Johnson] Publishing", "Johnson Publishing"},
		{"A&M", "A & M"},
		{"Smith   &  Sons;", "Smith & Sons"},
	}
	for _, tt := range tests {
		if got := cleanName(tt.input); got != tt.want {
			t.Errorf("cleanName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
