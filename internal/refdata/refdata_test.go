package refdata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/oralatlas/tessera/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T) model.RefDataConfig {
	t.Helper()
	dir := t.TempDir()
	return model.RefDataConfig{
		PlacesPath: writeFile(t, dir, "places.tsv",
			"place_code\tname\tstate_code\n55000\tNew Orleans\t22\n63000\tSeattle\t53\n"),
		CityHintsPath: writeFile(t, dir, "city_hints.tsv",
			"name\tstate_abbrev\tstate_code\tplace_code\nnew orleans\tLA\t22\t55000\n"),
		OrgAuthorityPath: writeFile(t, dir, "org_authority.tsv",
			"name\tauthority_id\nFisk University\tn50063319\n"),
		OrgSynonymsPath: writeFile(t, dir, "org_synonyms.tsv",
			"synonym\tcanonical\tauthority_id\nFisk\tFisk University\tn50063319\n"),
	}
}

func TestLoad(t *testing.T) {
	tables, err := Load(testConfig(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if code, ok := tables.PlaceInState(22, "new orleans"); !ok || code != 55000 {
		t.Errorf("PlaceInState = %d, %v; want 55000, true", code, ok)
	}
	if name := tables.PlaceName(22, 55000); name != "New Orleans" {
		t.Errorf("PlaceName = %q, want New Orleans", name)
	}
	if hint, ok := tables.CityHint("New Orleans"); !ok || hint.StateCode != 22 {
		t.Errorf("CityHint = %+v, %v", hint, ok)
	}
	if id, ok := tables.OrgAuthority("fisk university"); !ok || id != "n50063319" {
		t.Errorf("OrgAuthority = %q, %v", id, ok)
	}
	if syn, ok := tables.OrgSynonym("FISK"); !ok || syn.AuthorityID != "n50063319" {
		t.Errorf("OrgSynonym = %+v, %v", syn, ok)
	}
}

func TestLoadMissingFileFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.PlacesPath = filepath.Join(t.TempDir(), "nope.tsv")

	_, err := Load(cfg)
	if !errors.Is(err, model.ErrRefData) {
		t.Errorf("error = %v, want ErrRefData", err)
	}
}

func TestLoadEmptyFileFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.OrgSynonymsPath = writeFile(t, t.TempDir(), "empty.tsv", "synonym\tcanonical\tauthority_id\n")

	_, err := Load(cfg)
	if !errors.Is(err, model.ErrRefData) {
		t.Errorf("error = %v, want ErrRefData", err)
	}
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	cfg := testConfig(t)
	cfg.PlacesPath = writeFile(t, t.TempDir(), "places.tsv",
		"place_code\tname\tstate_code\n"+
			"55000\tNew Orleans\t22\n"+
			"not-a-number\tBadville\t22\n"+ // bad place id
			"99\tShortRow\n"+ // too few columns
			"63000\tSeattle\t53\n")

	tables, err := Load(cfg)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := tables.PlaceInState(22, "badville"); ok {
		t.Error("malformed row should have been skipped")
	}
	if _, ok := tables.PlaceInState(53, "seattle"); !ok {
		t.Error("valid row after a malformed one was lost")
	}
}

func TestDuplicateRowsSkipped(t *testing.T) {
	tables := NewTables()
	tables.AddPlace(1000, "Springfield", 17)
	tables.AddPlace(2000, "Springfield", 17) // duplicate name in the same state

	code, ok := tables.PlaceInState(17, "Springfield")
	if !ok || code != 1000 {
		t.Errorf("PlaceInState = %d, %v; want first registration 1000", code, ok)
	}
}

func TestStateByName(t *testing.T) {
	tables := NewTables()
	tests := []struct {
		in   string
		code int
		ok   bool
	}{
		{"Louisiana", 22, true},
		{"louisiana", 22, true},
		{"LA", 22, true},
		{"District of Columbia", StateCodeDC, true},
		{"Washington", StateCodeWashington, true},
		{"Atlantis", 0, false},
	}
	for _, tt := range tests {
		s, ok := tables.StateByName(tt.in)
		if ok != tt.ok || (ok && s.Code != tt.code) {
			t.Errorf("StateByName(%q) = %+v, %v; want code %d, %v", tt.in, s, ok, tt.code, tt.ok)
		}
	}
}
